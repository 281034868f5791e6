// SPDX-License-Identifier: Unlicense OR MIT

// Package viewprocess defines the typed bidirectional channel between
// the core and the OS window/GL/GPU backend, plus an in-process
// Loopback transport used for headless testing (spec §4.I).
package viewprocess

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SamRodri/zng-sub001/zid"
)

// ErrWorkerShutdown is returned to pending callers once a Conn has
// exhausted its respawn budget (spec §4.I "Failure").
var ErrWorkerShutdown = errors.New("viewprocess: worker is shutdown")

// MessageKind discriminates the payloads Conn exchanges.
type MessageKind int

const (
	MsgDeviceInventory MessageKind = iota
	MsgMonitorInventory
	MsgRawInput
	MsgFrameRendered
	MsgImageLifecycle
	MsgFontLifecycle
)

// Message is one item flowing over the channel in either direction.
type Message struct {
	Kind     MessageKind
	Device   zid.DeviceId
	Data     any
	Position [2]float32 // used by MouseMoved coalescing
}

// Conn is the bidirectional channel contract the loop drives; Loopback
// is the only implementation in this module, but the interface lets
// headless tests and a real OS backend share the same Loop wiring.
type Conn interface {
	Send(Message) error
	Recv(deadline time.Time) (Message, bool)
	Close() error
}

// Loopback is an in-process Conn, useful for headless demos and tests:
// everything written with Send is immediately available to Recv,
// subject to the same MouseMoved coalescing rule a real backend's
// queue would apply.
type Loopback struct {
	mu      sync.Mutex
	queue   []Message
	closed  bool
	respawn *RespawnPolicy
}

// NewLoopback creates a ready Loopback channel.
func NewLoopback() *Loopback {
	return &Loopback{respawn: NewRespawnPolicy(5, time.Minute)}
}

// Send enqueues msg, coalescing it with the last queued message if both
// are MouseMoved from the same device (spec §4.I "Coalescing rule").
func (l *Loopback) Send(msg Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrWorkerShutdown
	}
	if msg.Kind == MsgRawInput && len(l.queue) > 0 {
		last := &l.queue[len(l.queue)-1]
		if last.Kind == MsgRawInput && last.Device == msg.Device && isMouseMoved(last.Data) && isMouseMoved(msg.Data) {
			last.Position = msg.Position
			last.Data = msg.Data
			return nil
		}
	}
	l.queue = append(l.queue, msg)
	return nil
}

func isMouseMoved(data any) bool {
	_, ok := data.(MouseMovedData)
	return ok
}

// MouseMovedData tags a raw-input message as a cursor move so Send can
// apply the coalescing rule.
type MouseMovedData struct{}

// Recv returns the next queued message, or blocks (best-effort, in
// this in-process implementation just a short sleep loop) until
// deadline.
func (l *Loopback) Recv(deadline time.Time) (Message, bool) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return Message{}, false
		}
		if len(l.queue) > 0 {
			msg := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			return msg, true
		}
		l.mu.Unlock()
		if time.Now().After(deadline) {
			return Message{}, false
		}
		time.Sleep(time.Millisecond)
	}
}

// Close marks the channel closed; further Send calls fail.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

// Drain removes and returns every currently queued message without
// blocking, for tests that want to inspect coalescing directly.
func (l *Loopback) Drain() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.queue
	l.queue = nil
	return out
}

// RespawnPolicy tracks disconnect/respawn attempts within a rolling
// window and declares permanent failure once the budget is exhausted
// (spec §4.I "Failure").
type RespawnPolicy struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	attempts []time.Time
	down     bool
}

// NewRespawnPolicy constructs a policy allowing max respawns per
// window.
func NewRespawnPolicy(max int, window time.Duration) *RespawnPolicy {
	return &RespawnPolicy{max: max, window: window}
}

// Respawn records an attempt at now and reports whether the bridge may
// still try to reconnect. Once it returns false the policy is
// permanently down.
func (p *RespawnPolicy) Respawn(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return false
	}
	cutoff := now.Add(-p.window)
	kept := p.attempts[:0]
	for _, t := range p.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	p.attempts = kept
	if len(p.attempts) >= p.max {
		p.down = true
		logrus.Error("viewprocess: respawn budget exhausted, bridge permanently down")
		return false
	}
	p.attempts = append(p.attempts, now)
	return true
}

// IsDown reports whether the policy has permanently given up.
func (p *RespawnPolicy) IsDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.down
}

// Bridge owns a Conn and its RespawnPolicy, reconnecting on disconnect
// until the policy gives up, at which point every Send/pending caller
// observes ErrWorkerShutdown.
type Bridge struct {
	mu      sync.Mutex
	conn    Conn
	policy  *RespawnPolicy
	connect func() (Conn, error)
}

// NewBridge wraps an already-connected Conn; connect is called to
// reconnect after a disconnect, respecting the 5-per-minute policy.
func NewBridge(conn Conn, connect func() (Conn, error)) *Bridge {
	return &Bridge{conn: conn, policy: NewRespawnPolicy(5, time.Minute), connect: connect}
}

// Send forwards to the current Conn. On failure it attempts one
// respawn and, if that succeeds, resends msg once on the new Conn,
// returning that attempt's error.
func (b *Bridge) Send(msg Message, now time.Time) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return ErrWorkerShutdown
	}
	err := conn.Send(msg)
	if err == nil {
		return nil
	}
	if err := b.handleDisconnect(now); err != nil {
		return err
	}
	b.mu.Lock()
	conn = b.conn
	b.mu.Unlock()
	return conn.Send(msg)
}

func (b *Bridge) handleDisconnect(now time.Time) error {
	if !b.policy.Respawn(now) {
		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		return ErrWorkerShutdown
	}
	if b.connect == nil {
		return ErrWorkerShutdown
	}
	conn, err := b.connect()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	return nil
}
