package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"relaychat/internal/app/store"
)

// fakeGateway is an in-memory Gateway for driving the session handler.
type fakeGateway struct {
	mu       sync.Mutex
	users    map[int64]*store.User
	chats    map[int64]*store.Chat
	members  map[string]bool // "chatID/userID"
	messages []store.AppendMessageParams
	nextMsg  int64
	failNext error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:   make(map[int64]*store.User),
		chats:   make(map[int64]*store.Chat),
		members: make(map[string]bool),
	}
}

func memberKey(chatID, userID int64) string {
	return fmt.Sprintf("%d/%d", chatID, userID)
}

func (g *fakeGateway) addUser(id int64, name string) {
	g.users[id] = &store.User{ID: id, FirstName: name, LastSeen: time.Now(), IsActive: true}
}

func (g *fakeGateway) addChat(id int64, members ...int64) {
	g.chats[id] = &store.Chat{ID: id, Type: "private"}
	for _, m := range members {
		g.members[memberKey(id, m)] = true
	}
}

func (g *fakeGateway) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.users[id], nil
}

func (g *fakeGateway) FindChat(_ context.Context, chatID int64) (*store.Chat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chats[chatID], nil
}

func (g *fakeGateway) IsActiveParticipant(_ context.Context, chatID, userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members[memberKey(chatID, userID)], nil
}

func (g *fakeGateway) AppendMessage(_ context.Context, p store.AppendMessageParams) (*store.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return nil, err
	}
	g.messages = append(g.messages, p)
	g.nextMsg++
	msgType := p.Type
	if msgType == "" {
		msgType = "text"
	}
	return &store.Message{
		ID:        g.nextMsg,
		ChatID:    p.ChatID,
		SenderID:  p.SenderID,
		Type:      msgType,
		Content:   p.Content,
		CreatedAt: time.Now(),
	}, nil
}

func (g *fakeGateway) UpdateLastSeen(_ context.Context, _ int64) error {
	return nil
}

// fakeVerifier resolves tokens of the form "user-<id>".
type fakeVerifier struct {
	tokens map[string]int64
}

func (v *fakeVerifier) Resolve(token string) (int64, error) {
	if id, ok := v.tokens[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

type fixture struct {
	registry *Registry
	gateway  *fakeGateway
	handler  *SessionHandler
}

func newFixture() *fixture {
	registry := NewRegistry()
	gateway := newFakeGateway()
	verifier := &fakeVerifier{tokens: map[string]int64{
		"user-10": 10,
		"user-20": 20,
		"user-30": 30,
	}}
	handler := NewSessionHandler(registry, gateway, verifier, NewBroadcaster(registry))
	return &fixture{registry: registry, gateway: gateway, handler: handler}
}

// connect registers a fresh connection and returns it with its capture conn.
func (f *fixture) connect(t *testing.T) (int64, *memConn) {
	t.Helper()
	id := f.registry.NextConnID()
	conn := &memConn{}
	f.registry.Register(id, conn)
	return id, conn
}

func (f *fixture) send(connID int64, conn *memConn, frame string) {
	f.handler.HandleEnvelope(context.Background(), connID, conn, []byte(frame))
}

// authedConn connects and authenticates as the given user.
func (f *fixture) authedConn(t *testing.T, userID int64) (int64, *memConn) {
	t.Helper()
	id, conn := f.connect(t)
	f.send(id, conn, fmt.Sprintf(`{"type":"auth","token":"user-%d"}`, userID))
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(conn.lastFrame(), &ev); err != nil || ev.Type != TypeAuthSuccess {
		t.Fatalf("auth as user %d failed: %s", userID, conn.lastFrame())
	}
	return id, conn
}

func decodeEvent(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var ev map[string]any
	if err := json.Unmarshal(frame, &ev); err != nil {
		t.Fatalf("invalid event json %q: %v", frame, err)
	}
	return ev
}

func expectError(t *testing.T, conn *memConn, message string) {
	t.Helper()
	ev := decodeEvent(t, conn.lastFrame())
	if ev["type"] != TypeError || ev["message"] != message {
		t.Fatalf("expected error %q, got %v", message, ev)
	}
}

func TestAuthRequiresToken(t *testing.T) {
	f := newFixture()
	id, conn := f.connect(t)

	f.send(id, conn, `{"type":"auth"}`)
	expectError(t, conn, "Token required")
}

func TestAuthRejectsBadToken(t *testing.T) {
	f := newFixture()
	id, conn := f.connect(t)

	f.send(id, conn, `{"type":"auth","token":"garbage"}`)
	expectError(t, conn, "Invalid token")
	if f.registry.UserID(id) != 0 {
		t.Fatal("failed auth must leave connection unauthenticated")
	}
}

func TestAuthRejectsUnknownUser(t *testing.T) {
	f := newFixture()
	id, conn := f.connect(t)

	// Token resolves but no account exists behind it.
	f.send(id, conn, `{"type":"auth","token":"user-30"}`)
	expectError(t, conn, "Invalid token")
}

func TestAuthSuccessEchoesUser(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	id, conn := f.connect(t)

	f.send(id, conn, `{"type":"auth","token":"user-10"}`)

	ev := decodeEvent(t, conn.lastFrame())
	if ev["type"] != TypeAuthSuccess {
		t.Fatalf("expected auth_success, got %v", ev)
	}
	user, _ := ev["user"].(map[string]any)
	if user["id"] != float64(10) || user["first_name"] != "Alice" {
		t.Fatalf("unexpected user view: %v", user)
	}
	if f.registry.UserID(id) != 10 {
		t.Fatal("connection should be bound to user 10")
	}
}

func TestSecondAuthKeepsOriginalUser(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addUser(20, "Bob")
	id, conn := f.authedConn(t, 10)

	f.send(id, conn, `{"type":"auth","token":"user-20"}`)
	expectError(t, conn, "Already authenticated")
	if got := f.registry.UserID(id); got != 10 {
		t.Fatalf("expected original user 10 to survive, got %d", got)
	}
}

func TestJoinBeforeAuth(t *testing.T) {
	f := newFixture()
	id, conn := f.connect(t)

	f.send(id, conn, `{"type":"join_chat","chat_id":1}`)
	expectError(t, conn, "Not authenticated")
}

func TestJoinDeniedForNonMember(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addChat(1, 20) // Alice is not a member
	id, conn := f.authedConn(t, 10)

	f.send(id, conn, `{"type":"join_chat","chat_id":1}`)
	expectError(t, conn, "Access denied to chat")
	if f.registry.Joined(id, 1) {
		t.Fatal("denied join must not alter the joined set")
	}
}

func TestJoinUnknownChat(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	id, conn := f.authedConn(t, 10)

	f.send(id, conn, `{"type":"join_chat","chat_id":404}`)
	expectError(t, conn, "Access denied to chat")
}

func TestJoinAndLeaveAcknowledged(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addChat(1, 10)
	id, conn := f.authedConn(t, 10)

	f.send(id, conn, `{"type":"join_chat","chat_id":1}`)
	ev := decodeEvent(t, conn.lastFrame())
	if ev["type"] != TypeChatJoined || ev["chat_id"] != float64(1) {
		t.Fatalf("expected chat_joined, got %v", ev)
	}
	if !f.registry.Joined(id, 1) {
		t.Fatal("join should be recorded")
	}

	f.send(id, conn, `{"type":"leave_chat","chat_id":1}`)
	ev = decodeEvent(t, conn.lastFrame())
	if ev["type"] != TypeChatLeft || ev["chat_id"] != float64(1) {
		t.Fatalf("expected chat_left, got %v", ev)
	}
	if f.registry.Joined(id, 1) {
		t.Fatal("leave should be recorded")
	}
}

func TestLeaveNeverJoinedStillAcknowledged(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	id, conn := f.authedConn(t, 10)

	f.send(id, conn, `{"type":"leave_chat","chat_id":99}`)
	ev := decodeEvent(t, conn.lastFrame())
	if ev["type"] != TypeChatLeft {
		t.Fatalf("expected chat_left, got %v", ev)
	}
}

func TestMessageRequiresJoinedChat(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addChat(1, 10)
	id, conn := f.authedConn(t, 10)

	// Member of the chat, but never joined it on this connection.
	before := conn.frameCount()
	f.send(id, conn, `{"type":"message","chat_id":1,"content":"hi"}`)
	if got := conn.frameCount() - before; got != 0 {
		t.Fatalf("message without join must be silently dropped, got %d frames", got)
	}
	if len(f.gateway.messages) != 0 {
		t.Fatal("message must not be persisted without a join")
	}
}

func TestMessageBeforeAuthSilentlyDropped(t *testing.T) {
	f := newFixture()
	f.gateway.addChat(1, 10)
	id, conn := f.connect(t)

	f.send(id, conn, `{"type":"message","chat_id":1,"content":"hi"}`)
	if conn.frameCount() != 0 {
		t.Fatal("message before auth must be silently dropped")
	}
	if len(f.gateway.messages) != 0 {
		t.Fatal("message before auth must not be persisted")
	}
}

func TestMessagePersistedAndFannedOut(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addUser(20, "Bob")
	f.gateway.addChat(1, 10, 20)

	aliceID, alice := f.authedConn(t, 10)
	bobID, bob := f.authedConn(t, 20)
	f.send(aliceID, alice, `{"type":"join_chat","chat_id":1}`)
	f.send(bobID, bob, `{"type":"join_chat","chat_id":1}`)

	aliceBefore := alice.frameCount()
	bobBefore := bob.frameCount()

	f.send(aliceID, alice, `{"type":"message","chat_id":1,"content":"hi bob"}`)

	// Sender gets exactly one message_sent, no new_message echo.
	if got := alice.frameCount() - aliceBefore; got != 1 {
		t.Fatalf("expected 1 frame to sender, got %d", got)
	}
	sent := decodeEvent(t, alice.lastFrame())
	if sent["type"] != TypeMessageSent {
		t.Fatalf("expected message_sent for sender, got %v", sent)
	}

	// Recipient gets exactly one new_message.
	if got := bob.frameCount() - bobBefore; got != 1 {
		t.Fatalf("expected 1 frame to recipient, got %d", got)
	}
	recv := decodeEvent(t, bob.lastFrame())
	if recv["type"] != TypeNewMessage {
		t.Fatalf("expected new_message for recipient, got %v", recv)
	}
	msg, _ := recv["message"].(map[string]any)
	if msg["content"] != "hi bob" || msg["sender_id"] != float64(10) {
		t.Fatalf("unexpected message view: %v", msg)
	}

	if len(f.gateway.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(f.gateway.messages))
	}
}

func TestMessageNotDeliveredAfterRecipientLeaves(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addUser(20, "Bob")
	f.gateway.addChat(1, 10, 20)

	aliceID, alice := f.authedConn(t, 10)
	bobID, bob := f.authedConn(t, 20)
	f.send(aliceID, alice, `{"type":"join_chat","chat_id":1}`)
	f.send(bobID, bob, `{"type":"join_chat","chat_id":1}`)
	f.send(bobID, bob, `{"type":"leave_chat","chat_id":1}`)

	bobBefore := bob.frameCount()
	f.send(aliceID, alice, `{"type":"message","chat_id":1,"content":"anyone?"}`)

	if got := bob.frameCount() - bobBefore; got != 0 {
		t.Fatalf("expected no frames after leave, got %d", got)
	}
}

func TestMessageEmptyContentSilentlyDropped(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addChat(1, 10)
	id, conn := f.authedConn(t, 10)
	f.send(id, conn, `{"type":"join_chat","chat_id":1}`)

	before := conn.frameCount()
	f.send(id, conn, `{"type":"message","chat_id":1}`)
	if got := conn.frameCount() - before; got != 0 {
		t.Fatalf("empty message must be silently dropped, got %d frames", got)
	}
	if len(f.gateway.messages) != 0 {
		t.Fatal("empty message must not be persisted")
	}
}

func TestMessagePersistFailureDoesNotBroadcast(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addUser(20, "Bob")
	f.gateway.addChat(1, 10, 20)

	aliceID, alice := f.authedConn(t, 10)
	bobID, bob := f.authedConn(t, 20)
	f.send(aliceID, alice, `{"type":"join_chat","chat_id":1}`)
	f.send(bobID, bob, `{"type":"join_chat","chat_id":1}`)

	f.gateway.failNext = errors.New("db down")
	aliceBefore := alice.frameCount()
	bobBefore := bob.frameCount()

	f.send(aliceID, alice, `{"type":"message","chat_id":1,"content":"hi"}`)

	if got := alice.frameCount() - aliceBefore; got != 0 {
		t.Fatalf("failed persist must not confirm to sender, got %d frames", got)
	}
	if got := bob.frameCount() - bobBefore; got != 0 {
		t.Fatalf("failed persist must not fan out, got %d frames", got)
	}
}

func TestTypingRelayedToOthersOnly(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addUser(20, "Bob")
	f.gateway.addChat(1, 10, 20)

	aliceID, alice := f.authedConn(t, 10)
	bobID, bob := f.authedConn(t, 20)
	f.send(aliceID, alice, `{"type":"join_chat","chat_id":1}`)
	f.send(bobID, bob, `{"type":"join_chat","chat_id":1}`)

	aliceBefore := alice.frameCount()
	f.send(aliceID, alice, `{"type":"typing","chat_id":1}`)

	if got := alice.frameCount() - aliceBefore; got != 0 {
		t.Fatalf("typing must not echo to the sender, got %d frames", got)
	}
	ev := decodeEvent(t, bob.lastFrame())
	if ev["type"] != TypeTyping || ev["user_id"] != float64(10) || ev["chat_id"] != float64(1) {
		t.Fatalf("unexpected typing event: %v", ev)
	}
}

func TestTypingSilentlyDroppedWithoutJoin(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	f.gateway.addChat(1, 10)
	id, conn := f.authedConn(t, 10)

	before := conn.frameCount()
	f.send(id, conn, `{"type":"typing","chat_id":1}`)
	if got := conn.frameCount() - before; got != 0 {
		t.Fatalf("typing without join must be silent, got %d frames", got)
	}
}

func TestMalformedAndUnknownFramesSilentlyDropped(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	id, conn := f.authedConn(t, 10)

	before := conn.frameCount()
	f.send(id, conn, `{not json`)
	f.send(id, conn, `{"type":"presence_ping"}`)
	f.send(id, conn, `{}`)

	if got := conn.frameCount() - before; got != 0 {
		t.Fatalf("expected silent drops, got %d frames", got)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	f := newFixture()
	f.gateway.addUser(10, "Alice")
	id, _ := f.authedConn(t, 10)

	f.handler.HandleDisconnect(context.Background(), id)
	if f.registry.Len() != 0 {
		t.Fatal("disconnect should remove the session")
	}
	if f.registry.UserID(id) != 0 {
		t.Fatal("disconnected connection should have no bound user")
	}
}
