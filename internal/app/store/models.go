/*
Package store implements the persistence gateway for the messenger.

It owns every relational query in the application: users, chats, chat
participants, messages, and contacts. All other packages go through Store;
nothing else touches the database pool.

This file defines the row models and the wire views derived from them.
*/
package store

import "time"

// User is one account row.
type User struct {
	ID               int64
	Phone            string
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	Avatar           *string
	TelegramID       *int64
	TelegramUsername *string
	PhoneVerifiedAt  *time.Time
	EmailVerifiedAt  *time.Time
	IsActive         bool
	LastSeen         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserView is the JSON shape of a user as sent to clients; the password hash
// never leaves the store.
type UserView struct {
	ID               int64   `json:"id"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Avatar           *string `json:"avatar"`
	TelegramID       *int64  `json:"telegram_id"`
	TelegramUsername *string `json:"telegram_username"`
	PhoneVerifiedAt  *string `json:"phone_verified_at"`
	EmailVerifiedAt  *string `json:"email_verified_at"`
	IsActive         bool    `json:"is_active"`
	LastSeen         string  `json:"last_seen"`
}

// View converts the row into its client-facing shape.
func (u *User) View() UserView {
	return UserView{
		ID:               u.ID,
		Phone:            u.Phone,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Avatar:           u.Avatar,
		TelegramID:       u.TelegramID,
		TelegramUsername: u.TelegramUsername,
		PhoneVerifiedAt:  formatNullableTime(u.PhoneVerifiedAt),
		EmailVerifiedAt:  formatNullableTime(u.EmailVerifiedAt),
		IsActive:         u.IsActive,
		LastSeen:         u.LastSeen.Format(time.RFC3339),
	}
}

// UserSearchResult is the reduced user shape returned by the search endpoints.
type UserSearchResult struct {
	ID               int64   `json:"id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Phone            string  `json:"phone"`
	Avatar           *string `json:"avatar"`
	TelegramUsername *string `json:"telegram_username"`
}

// Chat is one chat row. Name is null for private chats; clients fall back to
// the other participant's name.
type Chat struct {
	ID        int64
	Type      string
	Name      *string
	Avatar    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatView is the JSON shape of a chat as sent to clients.
type ChatView struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	Name      *string `json:"name"`
	Avatar    *string `json:"avatar"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// View converts the row into its client-facing shape.
func (c *Chat) View() ChatView {
	return ChatView{
		ID:        c.ID,
		Type:      c.Type,
		Name:      c.Name,
		Avatar:    c.Avatar,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// ChatSummary is one row of the chat list: the chat plus the display name
// fallback, the latest message preview, and the unread counter.
type ChatSummary struct {
	ID              int64   `json:"id"`
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	Avatar          *string `json:"avatar"`
	Phone           *string `json:"phone"`
	LastMessage     *string `json:"last_message"`
	LastMessageTime *string `json:"last_message_time"`
	UnreadCount     int64   `json:"unread_count"`
}

// Message is one message row joined with the sender's display fields.
// Rows are immutable once created except for the is_read flag, which only
// ever transitions false to true.
type Message struct {
	ID               int64
	ChatID           int64
	SenderID         int64
	Type             string
	Content          string
	FilePath         *string
	FileName         *string
	FileSize         *int64
	Duration         *int64
	IsRead           bool
	ReplyToMessageID *int64
	CreatedAt        time.Time

	SenderFirstName string
	SenderLastName  string
	SenderAvatar    *string
}

// MessageSenderView is the nested sender block of a MessageView.
type MessageSenderView struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Avatar    *string `json:"avatar"`
}

// MessageView is the JSON shape of a message as sent to clients, both over
// REST and inside realtime envelopes.
type MessageView struct {
	ID               int64             `json:"id"`
	ChatID           int64             `json:"chat_id"`
	SenderID         int64             `json:"sender_id"`
	Type             string            `json:"type"`
	Content          string            `json:"content"`
	FilePath         *string           `json:"file_path"`
	FileName         *string           `json:"file_name"`
	FileSize         *int64            `json:"file_size"`
	Duration         *int64            `json:"duration"`
	IsRead           bool              `json:"is_read"`
	ReplyToMessageID *int64            `json:"reply_to_message_id"`
	CreatedAt        string            `json:"created_at"`
	Sender           MessageSenderView `json:"sender"`
}

// View converts the row into its client-facing shape.
func (m *Message) View() MessageView {
	return MessageView{
		ID:               m.ID,
		ChatID:           m.ChatID,
		SenderID:         m.SenderID,
		Type:             m.Type,
		Content:          m.Content,
		FilePath:         m.FilePath,
		FileName:         m.FileName,
		FileSize:         m.FileSize,
		Duration:         m.Duration,
		IsRead:           m.IsRead,
		ReplyToMessageID: m.ReplyToMessageID,
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
		Sender: MessageSenderView{
			FirstName: m.SenderFirstName,
			LastName:  m.SenderLastName,
			Avatar:    m.SenderAvatar,
		},
	}
}

// Contact is one contact-list row joined with the contact's display fields.
type Contact struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	ContactUserID int64            `json:"contact_user_id"`
	Nickname      *string          `json:"nickname"`
	AddedAt       time.Time        `json:"added_at"`
	ContactInfo   UserSearchResult `json:"contact_info"`
}

func formatNullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
