/*
Package chat contains the realtime delivery core: the connection registry,
the session protocol handler, and the fan-out broadcaster.

This file defines the wire envelopes. Clients send small JSON envelopes tagged
by type; the server answers with typed event objects. Unknown or malformed
input is dropped without a reply.
*/
package chat

import "relaychat/internal/app/store"

// Inbound envelope types.
const (
	TypeAuth      = "auth"
	TypeJoinChat  = "join_chat"
	TypeLeaveChat = "leave_chat"
	TypeMessage   = "message"
	TypeTyping    = "typing"
)

// Outbound event types.
const (
	TypeAuthSuccess = "auth_success"
	TypeError       = "error"
	TypeChatJoined  = "chat_joined"
	TypeChatLeft    = "chat_left"
	TypeNewMessage  = "new_message"
	TypeMessageSent = "message_sent"
)

// Envelope is the single inbound frame shape. Only the fields relevant to the
// given type are read; extras are ignored.
type Envelope struct {
	Type             string `json:"type"`
	Token            string `json:"token,omitempty"`
	ChatID           int64  `json:"chat_id,omitempty"`
	Content          string `json:"content,omitempty"`
	MessageType      string `json:"message_type,omitempty"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

// AuthSuccessEvent confirms authentication and echoes the account.
type AuthSuccessEvent struct {
	Type string         `json:"type"`
	User store.UserView `json:"user"`
}

// ErrorEvent is sent only to the connection that caused the error.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatEvent acknowledges a join or leave.
type ChatEvent struct {
	Type   string `json:"type"`
	ChatID int64  `json:"chat_id"`
}

// MessageEvent carries a persisted message, either as a fan-out (new_message)
// or as the sender's acknowledgement (message_sent).
type MessageEvent struct {
	Type    string            `json:"type"`
	Message store.MessageView `json:"message"`
}

// TypingEvent relays a typing indicator to the other participants.
type TypingEvent struct {
	Type   string `json:"type"`
	ChatID int64  `json:"chat_id"`
	UserID int64  `json:"user_id"`
}
