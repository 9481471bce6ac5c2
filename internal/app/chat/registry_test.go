package chat

import (
	"sync"
	"testing"
)

// memConn is an in-memory Conn that records every frame queued to it.
type memConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (c *memConn) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errSendFailed
	}
	c.frames = append(c.frames, message)
	return nil
}

func (c *memConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *memConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *memConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

var errSendFailed = &sendError{}

type sendError struct{}

func (*sendError) Error() string { return "send failed" }

func TestRegisterUnregisterLeavesNoState(t *testing.T) {
	r := NewRegistry()

	for n := 0; n < 1000; n++ {
		id := r.NextConnID()
		r.Register(id, &memConn{})
		r.Authenticate(id, 42)
		r.Join(id, 7)
		r.Unregister(id)
	}

	if got := r.Len(); got != 0 {
		t.Fatalf("expected empty registry, got %d sessions", got)
	}
}

func TestAuthenticateOnlyOnce(t *testing.T) {
	r := NewRegistry()
	id := r.NextConnID()
	r.Register(id, &memConn{})

	if !r.Authenticate(id, 10) {
		t.Fatal("first authenticate should succeed")
	}
	if r.Authenticate(id, 20) {
		t.Fatal("second authenticate should fail")
	}
	if got := r.UserID(id); got != 10 {
		t.Fatalf("expected user 10 to stay bound, got %d", got)
	}
}

func TestAuthenticateUnknownConn(t *testing.T) {
	r := NewRegistry()
	if r.Authenticate(99, 10) {
		t.Fatal("authenticate should fail for unknown connection")
	}
}

func TestJoinLeaveTracksMembership(t *testing.T) {
	r := NewRegistry()
	id := r.NextConnID()
	r.Register(id, &memConn{})

	if r.Joined(id, 5) {
		t.Fatal("fresh connection should not be joined")
	}
	r.Join(id, 5)
	if !r.Joined(id, 5) {
		t.Fatal("expected joined after Join")
	}
	r.Leave(id, 5)
	if r.Joined(id, 5) {
		t.Fatal("expected not joined after Leave")
	}
}

func TestLeaveNeverJoinedIsNoOp(t *testing.T) {
	r := NewRegistry()
	id := r.NextConnID()
	r.Register(id, &memConn{})

	r.Leave(id, 123)
	if r.Joined(id, 123) {
		t.Fatal("leave of never-joined chat should leave no state")
	}
}

func TestRecipientsExcludesUserAndUnauthenticated(t *testing.T) {
	r := NewRegistry()

	join := func(userID int64) int64 {
		id := r.NextConnID()
		r.Register(id, &memConn{})
		if userID != 0 {
			r.Authenticate(id, userID)
		}
		r.Join(id, 1)
		return id
	}

	join(10)
	join(20)
	join(0) // never authenticated
	other := r.NextConnID()
	r.Register(other, &memConn{})
	r.Authenticate(other, 30)
	r.Join(other, 2) // different chat

	rcpts := r.Recipients(1, 10)
	if len(rcpts) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(rcpts))
	}
	if rcpts[0].UserID != 20 {
		t.Fatalf("expected recipient user 20, got %d", rcpts[0].UserID)
	}
}

func TestRecipientsSameUserTwoConnections(t *testing.T) {
	r := NewRegistry()

	for _, userID := range []int64{10, 10, 20} {
		id := r.NextConnID()
		r.Register(id, &memConn{})
		r.Authenticate(id, userID)
		r.Join(id, 1)
	}

	// Excluding user 10 removes both of their connections.
	rcpts := r.Recipients(1, 10)
	if len(rcpts) != 1 || rcpts[0].UserID != 20 {
		t.Fatalf("expected only user 20, got %+v", rcpts)
	}

	// Excluding user 20 keeps both of user 10's connections.
	if got := len(r.Recipients(1, 20)); got != 2 {
		t.Fatalf("expected 2 recipients, got %d", got)
	}
}

func TestConcurrentRegistryAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				id := r.NextConnID()
				r.Register(id, &memConn{})
				r.Authenticate(id, id)
				r.Join(id, 1)
				r.Recipients(1, 0)
				r.Unregister(id)
			}
		}()
	}
	wg.Wait()

	if got := r.Len(); got != 0 {
		t.Fatalf("expected empty registry after churn, got %d", got)
	}
}
