// SPDX-License-Identifier: Unlicense OR MIT

// Package event implements the typed event/command bus: statically
// declared, generically typed broadcast channels with ordered
// preview/ui/main delivery, and the Command specialisation used for
// addressable, scope-aware actions (spec §4.B).
package event

import (
	"sync"
	"sync/atomic"

	"github.com/SamRodri/zng-sub001/zid"
)

// PropagationHandle lets a handler stop further delivery of the event
// update it was invoked with.
type PropagationHandle struct {
	stopped atomic.Bool
}

// Stop marks the update's propagation as stopped. Safe to call from any
// handler during any phase.
func (p *PropagationHandle) Stop() { p.stopped.Store(true) }

// IsStopped reports whether Stop was already called.
func (p *PropagationHandle) IsStopped() bool { return p.stopped.Load() }

// DeliveryList is the precomputed set of widget paths that will receive
// an event update, or the "all" sentinel.
type DeliveryList struct {
	all     bool
	entries []zid.WidgetPath
}

// AllWidgets returns the sentinel delivery list that matches every path.
func AllWidgets() DeliveryList { return DeliveryList{all: true} }

// DeliveryFor returns a delivery list restricted to the given path
// prefixes (a widget and all its descendants, for each entry).
func DeliveryFor(prefixes ...zid.WidgetPath) DeliveryList {
	return DeliveryList{entries: prefixes}
}

// Matches reports whether path falls within the delivery list.
func (d DeliveryList) Matches(path zid.WidgetPath) bool {
	if d.all {
		return true
	}
	for _, e := range d.entries {
		if path.HasPrefix(e) {
			return true
		}
	}
	return false
}

// Phase identifies one of the three ordered delivery phases for a single
// event update (spec §4.B).
type Phase int

const (
	PhasePreview Phase = iota
	PhaseUI
	PhaseMain
)

// EventUpdate is the in-flight state of one Notify call: its arguments,
// the delivery list computed from them, and the shared propagation
// handle.
type EventUpdate[A any] struct {
	Args        A
	Delivery    DeliveryList
	Propagation *PropagationHandle

	mu          sync.Mutex
	postActions []func()
}

// QueuePostAction appends a follow-up run after the main phase
// completes (spec step 5), e.g. a command-triggered side effect enqueued
// by a widget's handler.
func (u *EventUpdate[A]) QueuePostAction(f func()) {
	u.mu.Lock()
	u.postActions = append(u.postActions, f)
	u.mu.Unlock()
}

// pendingUpdate is the type-erased form of an EventUpdate queued on a
// Bus, built by Event[A].Notify by closing over the concrete A.
type pendingUpdate struct {
	key         string
	propagation *PropagationHandle
	delivery    DeliveryList
	onUpdate    func()
	preview     func()
	uiFor       func(id zid.WidgetId)
	main        func()
	postActions func()
}

// Bus is the process-wide (or test-local) FIFO queue of pending event
// updates. One event update is delivered in full before the next starts;
// updates queued during delivery are appended to the same Bus (spec
// §4.B "Ordering").
type Bus struct {
	mu    sync.Mutex
	queue []*pendingUpdate
}

// NewBus returns an empty Bus.
func NewBus() *Bus { return &Bus{} }

func (b *Bus) push(p *pendingUpdate) {
	b.mu.Lock()
	b.queue = append(b.queue, p)
	b.mu.Unlock()
}

// Pending reports whether any event update is queued.
func (b *Bus) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) > 0
}

func (b *Bus) pop() (*pendingUpdate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, false
	}
	p := b.queue[0]
	b.queue = b.queue[1:]
	return p, true
}

// WidgetWalker pre-order-visits the widget ids a UI-phase delivery
// should consider; it is supplied by package wtree/loop since the bus
// itself holds no tree reference (spec design note: "widgets hold
// WidgetId ... the tree holds no upward references").
type WidgetWalker func(visit func(id zid.WidgetId, path zid.WidgetPath) (cont bool))

// DeliverOne pops and fully delivers the next queued update, if any,
// running preview -> ui -> main -> post_actions in order and respecting
// stopped propagation. It reports whether an update was delivered.
func (b *Bus) DeliverOne(walk WidgetWalker) bool {
	p, ok := b.pop()
	if !ok {
		return false
	}
	p.onUpdate()
	p.preview()
	if !p.propagation.IsStopped() && walk != nil {
		walk(func(id zid.WidgetId, path zid.WidgetPath) bool {
			if p.propagation.IsStopped() || !p.delivery.Matches(path) {
				return true
			}
			p.uiFor(id)
			return !p.propagation.IsStopped()
		})
	}
	p.main()
	p.postActions()
	return true
}

// Event is a statically declared broadcast channel for args of type A.
// Widgets subscribe by WidgetId (valid for as long as they keep the
// handle returned by Subscribe); app-extensions subscribe globally via
// OnPreview/OnMain.
type Event[A any] struct {
	key        string
	bus        *Bus
	deliveryOf func(A) DeliveryList
	onUpdate   func(*EventUpdate[A])

	mu      sync.Mutex
	subSeq  int
	subs    map[zid.WidgetId]map[int]func(Phase, *EventUpdate[A])
	preview map[int]func(*EventUpdate[A])
	main    map[int]func(*EventUpdate[A])
	extSeq  int
}

// New declares an event identified by key. deliveryOf computes the
// DeliveryList for a Notify call's args; pass nil to always broadcast to
// every widget (the "all" sentinel).
func New[A any](bus *Bus, key string, deliveryOf func(A) DeliveryList) *Event[A] {
	return &Event[A]{
		key:        key,
		bus:        bus,
		deliveryOf: deliveryOf,
		subs:       make(map[zid.WidgetId]map[int]func(Phase, *EventUpdate[A])),
		preview:    make(map[int]func(*EventUpdate[A])),
		main:       make(map[int]func(*EventUpdate[A])),
	}
}

// Key returns the event's static identifier.
func (e *Event[A]) Key() string { return e.key }

// OnUpdate installs the hook run once per Notify before any phase
// (spec step 1); Command uses it to stamp `enabled`.
func (e *Event[A]) OnUpdate(f func(*EventUpdate[A])) { e.onUpdate = f }

// Subscribe registers a UI-phase handler for widget w, returning an
// unsubscribe function. Widgets call this while building (package
// wtree) and drop the handle when torn down.
func (e *Event[A]) Subscribe(w zid.WidgetId, h func(Phase, *EventUpdate[A])) func() {
	e.mu.Lock()
	id := e.subSeq
	e.subSeq++
	if e.subs[w] == nil {
		e.subs[w] = make(map[int]func(Phase, *EventUpdate[A]))
	}
	e.subs[w][id] = h
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs[w], id)
		if len(e.subs[w]) == 0 {
			delete(e.subs, w)
		}
		e.mu.Unlock()
	}
}

// OnPreview registers an app-extension/observer handler for the preview
// phase, run before any widget.
func (e *Event[A]) OnPreview(h func(*EventUpdate[A])) func() {
	return e.registerExt(&e.preview, h)
}

// OnMain registers an app-extension/observer handler for the main
// (non-UI) phase, run after widget delivery.
func (e *Event[A]) OnMain(h func(*EventUpdate[A])) func() {
	return e.registerExt(&e.main, h)
}

func (e *Event[A]) registerExt(m *map[int]func(*EventUpdate[A]), h func(*EventUpdate[A])) func() {
	e.mu.Lock()
	id := e.extSeq
	e.extSeq++
	(*m)[id] = h
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(*m, id)
		e.mu.Unlock()
	}
}

// Notify publishes args: it builds an EventUpdate and queues it on the
// bus for delivery on the next DeliverOne call.
func (e *Event[A]) Notify(args A) *EventUpdate[A] {
	u := &EventUpdate[A]{Args: args, Propagation: &PropagationHandle{}}
	if e.deliveryOf != nil {
		u.Delivery = e.deliveryOf(args)
	} else {
		u.Delivery = AllWidgets()
	}
	e.bus.push(&pendingUpdate{
		key:         e.key,
		propagation: u.Propagation,
		delivery:    u.Delivery,
		onUpdate: func() {
			if e.onUpdate != nil {
				e.onUpdate(u)
			}
		},
		preview: func() { e.runExt(e.snapshot(&e.preview), u) },
		uiFor: func(id zid.WidgetId) {
			for _, h := range e.snapshotSubs(id) {
				if u.Propagation.IsStopped() {
					return
				}
				h(PhaseUI, u)
			}
		},
		main: func() { e.runExt(e.snapshot(&e.main), u) },
		postActions: func() {
			u.mu.Lock()
			actions := u.postActions
			u.mu.Unlock()
			for _, a := range actions {
				a()
			}
		},
	})
	return u
}

func (e *Event[A]) snapshot(m *map[int]func(*EventUpdate[A])) []func(*EventUpdate[A]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]func(*EventUpdate[A]), 0, len(*m))
	for _, h := range *m {
		out = append(out, h)
	}
	return out
}

func (e *Event[A]) snapshotSubs(w zid.WidgetId) []func(Phase, *EventUpdate[A]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.subs[w]
	out := make([]func(Phase, *EventUpdate[A]), 0, len(m))
	for _, h := range m {
		out = append(out, h)
	}
	return out
}

func (e *Event[A]) runExt(hs []func(*EventUpdate[A]), u *EventUpdate[A]) {
	for _, h := range hs {
		if u.Propagation.IsStopped() {
			return
		}
		h(u)
	}
}
