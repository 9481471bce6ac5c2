package chat

import (
	"sync"
	"sync/atomic"

	"relaychat/internal/pkg/metrics"
)

// Conn is the write side of one live connection. The websocket client
// implements it; tests substitute an in-memory fake.
type Conn interface {
	// Send queues an already-marshaled frame. It must not block.
	Send(message []byte) error

	// Close tears down the underlying connection. Safe to call repeatedly.
	Close()
}

// session is the registry's record of one live connection.
type session struct {
	conn   Conn
	userID int64 // 0 until authenticated
	joined map[int64]struct{}
}

// Recipient is one delivery target captured from the registry.
type Recipient struct {
	ConnID int64
	UserID int64
	Conn   Conn
}

// Registry tracks every live connection and its session state: the
// authenticated user, if any, and the set of chats the connection has joined.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*session
	nextID   atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*session),
	}
}

// NextConnID hands out a fresh connection identifier.
func (r *Registry) NextConnID() int64 {
	return r.nextID.Add(1)
}

// Register adds a connection in the unauthenticated state.
func (r *Registry) Register(connID int64, conn Conn) {
	r.mu.Lock()
	r.sessions[connID] = &session{
		conn:   conn,
		joined: make(map[int64]struct{}),
	}
	r.mu.Unlock()

	metrics.LiveConnections.Inc()
	metrics.ConnectionsTotal.Inc()
}

// Unregister removes the connection and all its session state. Removing an
// unknown id is a no-op, so the disconnect path may race a failed delivery
// path without harm.
func (r *Registry) Unregister(connID int64) {
	r.mu.Lock()
	_, existed := r.sessions[connID]
	delete(r.sessions, connID)
	r.mu.Unlock()

	if existed {
		metrics.LiveConnections.Dec()
	}
}

// Authenticate binds the user to the connection. It fails when the connection
// is unknown or already bound to a user; the session state is untouched in
// both cases.
func (r *Registry) Authenticate(connID, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok || s.userID != 0 {
		return false
	}
	s.userID = userID
	return true
}

// UserID returns the user bound to the connection, or 0 when the connection
// is unknown or unauthenticated.
func (r *Registry) UserID(connID int64) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok {
		return 0
	}
	return s.userID
}

// Join adds the chat to the connection's joined set.
func (r *Registry) Join(connID, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connID]; ok {
		s.joined[chatID] = struct{}{}
	}
}

// Leave removes the chat from the connection's joined set.
func (r *Registry) Leave(connID, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connID]; ok {
		delete(s.joined, chatID)
	}
}

// Joined reports whether the connection has joined the chat.
func (r *Registry) Joined(connID, chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	_, in := s.joined[chatID]
	return in
}

// Recipients snapshots every authenticated connection that has joined the
// chat, excluding connections bound to excludeUserID. Delivery happens on the
// snapshot after the lock is released, so a slow socket never stalls the
// registry.
func (r *Registry) Recipients(chatID, excludeUserID int64) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Recipient
	for id, s := range r.sessions {
		if s.userID == 0 || s.userID == excludeUserID {
			continue
		}
		if _, in := s.joined[chatID]; !in {
			continue
		}
		out = append(out, Recipient{ConnID: id, UserID: s.userID, Conn: s.conn})
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
