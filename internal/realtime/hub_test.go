package realtime

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

// fakeConn is an Outbound with a bounded in-memory queue.
type fakeConn struct {
	events []Envelope
	cap    int
}

func newFakeConn(capacity int) *fakeConn { return &fakeConn{cap: capacity} }

func (f *fakeConn) Push(ev Envelope) bool {
	if len(f.events) >= f.cap {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeConn) last(t *testing.T) Envelope {
	t.Helper()
	if len(f.events) == 0 {
		t.Fatal("no events delivered")
	}
	return f.events[len(f.events)-1]
}

func newTestHub() *Hub { return NewHub(zerolog.Nop()) }

func TestHub_NotifyDeliversToIdentifiedUser(t *testing.T) {
	h := newTestHub()
	conn := newFakeConn(8)
	h.Attach("c1", conn)
	h.Identify("c1", "u1")

	ok := h.Notify("u1", EventOfferNotification, OfferNotification{BuyerID: "b", ItemID: "i"})

	if !ok {
		t.Fatal("Notify returned false for an online user")
	}
	ev := conn.last(t)
	if ev.Event != EventOfferNotification {
		t.Fatalf("event = %q, want %q", ev.Event, EventOfferNotification)
	}
	var p OfferNotification
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.BuyerID != "b" || p.ItemID != "i" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestHub_NotifyOfflineUserIsSilentNoOp(t *testing.T) {
	h := newTestHub()

	if h.Notify("ghost", EventNewMessage, nil) {
		t.Fatal("Notify returned true for an offline user")
	}
}

func TestHub_NotifyAfterReconnectHitsNewConnOnly(t *testing.T) {
	h := newTestHub()
	oldConn := newFakeConn(8)
	newConn := newFakeConn(8)
	h.Attach("c-old", oldConn)
	h.Identify("c-old", "u1")
	h.Attach("c-new", newConn)
	h.Identify("c-new", "u1")

	h.Notify("u1", EventNewMessage, MessageNotification{Message: "hi"})

	if len(oldConn.events) != 0 {
		t.Fatalf("stale connection received %d events", len(oldConn.events))
	}
	if len(newConn.events) != 1 {
		t.Fatalf("live connection received %d events, want 1", len(newConn.events))
	}
}

func TestHub_NotifyQueueFullReportsDrop(t *testing.T) {
	h := newTestHub()
	conn := newFakeConn(0)
	h.Attach("c1", conn)
	h.Identify("c1", "u1")

	if h.Notify("u1", EventNewMessage, nil) {
		t.Fatal("Notify returned true when the send queue is full")
	}
}

func TestHub_DetachRemovesPresenceAndRooms(t *testing.T) {
	h := newTestHub()
	conn := newFakeConn(8)
	h.Attach("c1", conn)
	h.Identify("c1", "u1")
	h.JoinRoom("g1", "c1")

	h.Detach("c1")

	if h.Notify("u1", EventNewMessage, nil) {
		t.Fatal("Notify succeeded after detach")
	}
	if got := h.RoomSize("g1"); got != 0 {
		t.Fatalf("RoomSize(g1) = %d after detach, want 0", got)
	}
	if got := h.Presence().Online(); got != 0 {
		t.Fatalf("Online() = %d after detach, want 0", got)
	}
}

func TestHub_DetachUnknownConnIsNoOp(t *testing.T) {
	h := newTestHub()
	h.Detach("never-attached")
}

func TestHub_JoinRoomUnknownConnIsIgnored(t *testing.T) {
	h := newTestHub()

	h.JoinRoom("g1", "not-attached")

	if got := h.RoomSize("g1"); got != 0 {
		t.Fatalf("RoomSize(g1) = %d, want 0", got)
	}
}

func TestHub_BroadcastReachesEveryMemberExceptDeparted(t *testing.T) {
	h := newTestHub()
	a, b, c := newFakeConn(8), newFakeConn(8), newFakeConn(8)
	h.Attach("ca", a)
	h.Attach("cb", b)
	h.Attach("cc", c)
	h.JoinRoom("g1", "ca")
	h.JoinRoom("g1", "cb")
	h.JoinRoom("g1", "cc")
	h.LeaveRoom("g1", "cc")

	n := h.Broadcast("g1", EventNewMessage, MessageNotification{Message: "hello room"})

	if n != 2 {
		t.Fatalf("Broadcast delivered to %d sessions, want 2", n)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("member deliveries = %d, %d; want 1, 1", len(a.events), len(b.events))
	}
	if len(c.events) != 0 {
		t.Fatalf("departed member received %d events", len(c.events))
	}
}

func TestHub_BroadcastEmptyRoom(t *testing.T) {
	h := newTestHub()

	if n := h.Broadcast("nobody-home", EventNewMessage, nil); n != 0 {
		t.Fatalf("Broadcast to empty room delivered %d, want 0", n)
	}
}

func TestHub_BroadcastCountsOnlyAcceptedPushes(t *testing.T) {
	h := newTestHub()
	ok, full := newFakeConn(8), newFakeConn(0)
	h.Attach("c-ok", ok)
	h.Attach("c-full", full)
	h.JoinRoom("g1", "c-ok")
	h.JoinRoom("g1", "c-full")

	if n := h.Broadcast("g1", EventNewMessage, nil); n != 1 {
		t.Fatalf("Broadcast delivered to %d sessions, want 1", n)
	}
}

func TestHub_LeaveRoomUnknownIsNoOp(t *testing.T) {
	h := newTestHub()
	h.LeaveRoom("g1", "c1")
}

func TestHub_JoinedConnReceivesNoBacklog(t *testing.T) {
	h := newTestHub()
	early := newFakeConn(8)
	h.Attach("c-early", early)
	h.JoinRoom("g1", "c-early")
	h.Broadcast("g1", EventNewMessage, MessageNotification{Message: "before"})

	late := newFakeConn(8)
	h.Attach("c-late", late)
	h.JoinRoom("g1", "c-late")

	if len(late.events) != 0 {
		t.Fatalf("late joiner received %d replayed events, want 0", len(late.events))
	}

	h.Broadcast("g1", EventNewMessage, MessageNotification{Message: "after"})
	if len(late.events) != 1 {
		t.Fatalf("late joiner received %d live events, want 1", len(late.events))
	}
}

func TestHub_SendToUnknownConn(t *testing.T) {
	h := newTestHub()

	if h.SendTo("nope", EventError, "oops") {
		t.Fatal("SendTo returned true for an unknown connection")
	}
}
