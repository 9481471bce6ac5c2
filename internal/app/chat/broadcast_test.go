package chat

import (
	"encoding/json"
	"testing"
)

func TestBroadcastSkipsExcludedUser(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	conns := make(map[int64]*memConn)
	for _, userID := range []int64{10, 20, 30} {
		id := r.NextConnID()
		c := &memConn{}
		r.Register(id, c)
		r.Authenticate(id, userID)
		r.Join(id, 1)
		conns[userID] = c
	}

	b.Broadcast(1, 10, TypingEvent{Type: TypeTyping, ChatID: 1, UserID: 10})

	if conns[10].frameCount() != 0 {
		t.Fatal("excluded user must not receive the event")
	}
	for _, userID := range []int64{20, 30} {
		if conns[userID].frameCount() != 1 {
			t.Fatalf("user %d expected exactly one frame", userID)
		}
	}
}

func TestBroadcastFramesAreIdentical(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	var conns []*memConn
	for i := int64(1); i <= 3; i++ {
		id := r.NextConnID()
		c := &memConn{}
		r.Register(id, c)
		r.Authenticate(id, i*10)
		r.Join(id, 7)
		conns = append(conns, c)
	}

	b.Broadcast(7, 0, ChatEvent{Type: TypeChatJoined, ChatID: 7})

	first := conns[0].lastFrame()
	var ev ChatEvent
	if err := json.Unmarshal(first, &ev); err != nil || ev.ChatID != 7 {
		t.Fatalf("bad frame %q: %v", first, err)
	}
	for _, c := range conns[1:] {
		if string(c.lastFrame()) != string(first) {
			t.Fatal("all recipients must receive the same marshaled frame")
		}
	}
}

func TestBroadcastSurvivesFailingConnection(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	bad := &memConn{fail: true}
	good := &memConn{}
	for userID, c := range map[int64]*memConn{10: bad, 20: good} {
		id := r.NextConnID()
		r.Register(id, c)
		r.Authenticate(id, userID)
		r.Join(id, 1)
	}

	b.Broadcast(1, 0, ChatEvent{Type: TypeChatJoined, ChatID: 1})

	if good.frameCount() != 1 {
		t.Fatal("healthy connection must still receive the event")
	}
}

func TestBroadcastWhileLeaving(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	senderID := r.NextConnID()
	r.Register(senderID, &memConn{})
	r.Authenticate(senderID, 1)
	r.Join(senderID, 1)

	leaverConn := &memConn{}
	leaverID := r.NextConnID()
	r.Register(leaverID, leaverConn)
	r.Authenticate(leaverID, 2)
	r.Join(leaverID, 1)

	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			b.Broadcast(1, 1, ChatEvent{Type: TypeChatJoined, ChatID: int64(i)})
		}
	}()

	r.Leave(leaverID, 1)
	r.Unregister(leaverID)
	<-done

	// Frames delivered before the leave arrive at most once each; nothing
	// arrives twice and nothing arrives after unregistration raced ahead.
	if got := leaverConn.frameCount(); got > rounds {
		t.Fatalf("received %d frames for %d broadcasts", got, rounds)
	}
	seen := make(map[string]bool)
	for _, f := range leaverConn.frames {
		if seen[string(f)] {
			t.Fatalf("duplicate frame %s", f)
		}
		seen[string(f)] = true
	}
}

func TestBroadcastEmptyChatIsNoOp(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	// No sessions joined chat 5; must not panic or block.
	b.Broadcast(5, 0, ChatEvent{Type: TypeChatJoined, ChatID: 5})
}
