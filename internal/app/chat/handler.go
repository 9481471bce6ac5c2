package chat

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/metrics"
)

// MaxContentBytes caps the length of a text message body.
const MaxContentBytes = 5000

// Gateway is the slice of the persistence layer the session handler needs.
// *store.Store satisfies it.
type Gateway interface {
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
	FindChat(ctx context.Context, chatID int64) (*store.Chat, error)
	IsActiveParticipant(ctx context.Context, chatID, userID int64) (bool, error)
	AppendMessage(ctx context.Context, p store.AppendMessageParams) (*store.Message, error)
	UpdateLastSeen(ctx context.Context, userID int64) error
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Resolve(token string) (int64, error)
}

// SessionHandler drives one envelope at a time through the session state
// machine. It holds no per-connection state of its own; everything lives in
// the registry, so a single handler serves every connection.
type SessionHandler struct {
	registry    *Registry
	gateway     Gateway
	verifier    TokenVerifier
	broadcaster *Broadcaster
	logger      zerolog.Logger
}

// NewSessionHandler wires the handler to its collaborators.
func NewSessionHandler(registry *Registry, gateway Gateway, verifier TokenVerifier, broadcaster *Broadcaster) *SessionHandler {
	return &SessionHandler{
		registry:    registry,
		gateway:     gateway,
		verifier:    verifier,
		broadcaster: broadcaster,
		logger:      logx.Logger().With().Str("component", "session_handler").Logger(),
	}
}

// HandleEnvelope processes one raw inbound frame from the connection.
// Malformed JSON and unknown envelope types are dropped without a reply;
// protocol violations earn an error event sent only to the origin.
func (h *SessionHandler) HandleEnvelope(ctx context.Context, connID int64, conn Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn().Err(err).Int64("conn_id", connID).Msg("Dropping malformed frame")
		return
	}

	metrics.EnvelopesTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case TypeAuth:
		h.handleAuth(ctx, connID, conn, env)
	case TypeJoinChat:
		h.handleJoinChat(ctx, connID, conn, env)
	case TypeLeaveChat:
		h.handleLeaveChat(connID, conn, env)
	case TypeMessage:
		h.handleMessage(ctx, connID, conn, env)
	case TypeTyping:
		h.handleTyping(connID, env)
	default:
		h.logger.Warn().Int64("conn_id", connID).Str("type", env.Type).Msg("Dropping unknown envelope type")
	}
}

// HandleDisconnect tears down the connection's session state. The presence
// stamp is best effort; unregistration always happens.
func (h *SessionHandler) HandleDisconnect(ctx context.Context, connID int64) {
	if userID := h.registry.UserID(connID); userID != 0 {
		if err := h.gateway.UpdateLastSeen(ctx, userID); err != nil {
			h.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to stamp last seen on disconnect")
		}
	}
	h.registry.Unregister(connID)
}

func (h *SessionHandler) handleAuth(ctx context.Context, connID int64, conn Conn, env Envelope) {
	if env.Token == "" {
		h.sendError(conn, "Token required")
		return
	}

	if h.registry.UserID(connID) != 0 {
		h.sendError(conn, "Already authenticated")
		return
	}

	userID, err := h.verifier.Resolve(env.Token)
	if err != nil {
		metrics.AuthFailures.Inc()
		h.sendError(conn, "Invalid token")
		return
	}

	user, err := h.gateway.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user during auth")
		h.sendError(conn, "Invalid token")
		return
	}
	if user == nil {
		metrics.AuthFailures.Inc()
		h.sendError(conn, "Invalid token")
		return
	}

	if !h.registry.Authenticate(connID, user.ID) {
		// Lost the race with another auth envelope on this connection.
		h.sendError(conn, "Already authenticated")
		return
	}

	h.sendEvent(conn, AuthSuccessEvent{Type: TypeAuthSuccess, User: user.View()})
	h.logger.Info().Int64("conn_id", connID).Int64("user_id", user.ID).Msg("Connection authenticated")
}

func (h *SessionHandler) handleJoinChat(ctx context.Context, connID int64, conn Conn, env Envelope) {
	userID := h.registry.UserID(connID)
	if userID == 0 {
		h.sendError(conn, "Not authenticated")
		return
	}

	chat, err := h.gateway.FindChat(ctx, env.ChatID)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", env.ChatID).Msg("Failed to load chat during join")
		h.sendError(conn, "Access denied to chat")
		return
	}
	if chat == nil {
		h.sendError(conn, "Access denied to chat")
		return
	}

	member, err := h.gateway.IsActiveParticipant(ctx, env.ChatID, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", env.ChatID).Int64("user_id", userID).Msg("Failed to check chat membership")
		h.sendError(conn, "Access denied to chat")
		return
	}
	if !member {
		h.sendError(conn, "Access denied to chat")
		return
	}

	h.registry.Join(connID, env.ChatID)
	h.sendEvent(conn, ChatEvent{Type: TypeChatJoined, ChatID: env.ChatID})
}

func (h *SessionHandler) handleLeaveChat(connID int64, conn Conn, env Envelope) {
	if h.registry.UserID(connID) == 0 {
		h.sendError(conn, "Not authenticated")
		return
	}

	// Leaving a chat that was never joined is acknowledged the same way.
	h.registry.Leave(connID, env.ChatID)
	h.sendEvent(conn, ChatEvent{Type: TypeChatLeft, ChatID: env.ChatID})
}

// handleMessage persists and fans out a chat message. Unlike auth and join,
// unmet preconditions here are dropped without an error reply: only explicit
// request outcomes are surfaced.
func (h *SessionHandler) handleMessage(ctx context.Context, connID int64, conn Conn, env Envelope) {
	userID := h.registry.UserID(connID)
	if userID == 0 {
		return
	}

	if !h.registry.Joined(connID, env.ChatID) {
		h.logger.Warn().Int64("conn_id", connID).Int64("chat_id", env.ChatID).Msg("Dropping message for chat not joined")
		return
	}

	if env.Content == "" || len(env.Content) > MaxContentBytes {
		return
	}

	msg, err := h.gateway.AppendMessage(ctx, store.AppendMessageParams{
		ChatID:           env.ChatID,
		SenderID:         userID,
		Type:             env.MessageType,
		Content:          env.Content,
		ReplyToMessageID: env.ReplyToMessageID,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", env.ChatID).Int64("user_id", userID).Msg("Failed to persist message")
		return
	}
	metrics.MessagesPersisted.Inc()

	view := msg.View()
	h.broadcaster.Broadcast(env.ChatID, userID, MessageEvent{Type: TypeNewMessage, Message: view})
	h.sendEvent(conn, MessageEvent{Type: TypeMessageSent, Message: view})
}

func (h *SessionHandler) handleTyping(connID int64, env Envelope) {
	userID := h.registry.UserID(connID)
	if userID == 0 {
		return
	}
	if !h.registry.Joined(connID, env.ChatID) {
		return
	}

	h.broadcaster.Broadcast(env.ChatID, userID, TypingEvent{
		Type:   TypeTyping,
		ChatID: env.ChatID,
		UserID: userID,
	})
}

func (h *SessionHandler) sendError(conn Conn, message string) {
	h.sendEvent(conn, ErrorEvent{Type: TypeError, Message: message})
}

func (h *SessionHandler) sendEvent(conn Conn, event any) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal event")
		return
	}
	if err := conn.Send(frame); err != nil {
		metrics.DeliveryFailures.Inc()
		h.logger.Warn().Err(err).Msg("Failed to queue event for connection")
	}
}
