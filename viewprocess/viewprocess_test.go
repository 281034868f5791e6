package viewprocess

import (
	"testing"
	"time"

	"github.com/SamRodri/zng-sub001/zid"
)

func TestMouseMovedCoalescing(t *testing.T) {
	l := NewLoopback()
	device := zid.NewDeviceId()

	l.Send(Message{Kind: MsgRawInput, Device: device, Data: MouseMovedData{}, Position: [2]float32{1, 1}})
	l.Send(Message{Kind: MsgRawInput, Device: device, Data: MouseMovedData{}, Position: [2]float32{2, 2}})
	l.Send(Message{Kind: MsgRawInput, Device: device, Data: MouseMovedData{}, Position: [2]float32{3, 3}})

	msgs := l.Drain()
	if len(msgs) != 1 {
		t.Fatalf("got %d queued messages, want 1 coalesced MouseMoved", len(msgs))
	}
	if msgs[0].Position != [2]float32{3, 3} {
		t.Fatalf("coalesced position = %v, want the latest (3,3)", msgs[0].Position)
	}
}

func TestMouseMovedDoesNotCoalesceAcrossDevices(t *testing.T) {
	l := NewLoopback()
	d1, d2 := zid.NewDeviceId(), zid.NewDeviceId()

	l.Send(Message{Kind: MsgRawInput, Device: d1, Data: MouseMovedData{}})
	l.Send(Message{Kind: MsgRawInput, Device: d2, Data: MouseMovedData{}})

	if msgs := l.Drain(); len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (different devices must not coalesce)", len(msgs))
	}
}

func TestRespawnPolicyGivesUpAfterFiveInAMinute(t *testing.T) {
	p := NewRespawnPolicy(5, time.Minute)
	base := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		if !p.Respawn(base.Add(time.Duration(i) * time.Second)) {
			t.Fatalf("respawn %d should still be allowed within budget", i+1)
		}
	}
	if p.Respawn(base.Add(5 * time.Second)) {
		t.Fatal("sixth respawn within one minute should be refused")
	}
	if !p.IsDown() {
		t.Fatal("policy should report permanently down once budget is exhausted")
	}
}

func TestRespawnPolicyWindowResets(t *testing.T) {
	p := NewRespawnPolicy(5, time.Minute)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		p.Respawn(base.Add(time.Duration(i) * time.Second))
	}
	// Far enough past the window that all prior attempts have aged out.
	if !p.Respawn(base.Add(2 * time.Minute)) {
		t.Fatal("respawn after the rolling window has cleared should be allowed again")
	}
}

func TestBridgeSendReturnsShutdownErrorWhenDown(t *testing.T) {
	failing := &alwaysFailConn{}
	b := NewBridge(failing, func() (Conn, error) { return failing, nil })
	// Exhaust the respawn budget by forcing repeated disconnects.
	now := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		b.Send(Message{}, now.Add(time.Duration(i)*time.Second))
	}
	err := b.Send(Message{}, now.Add(time.Minute))
	if err != ErrWorkerShutdown {
		t.Fatalf("Send() error = %v, want ErrWorkerShutdown once the bridge gives up", err)
	}
}

type alwaysFailConn struct{}

func (a *alwaysFailConn) Send(Message) error             { return ErrWorkerShutdown }
func (a *alwaysFailConn) Recv(time.Time) (Message, bool) { return Message{}, false }
func (a *alwaysFailConn) Close() error                   { return nil }
