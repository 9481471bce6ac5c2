package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const maxMessagePageSize = 100

// AppendMessageParams carries the fields of a new message. Type defaults to
// "text" when empty; the file fields are only set for media messages.
type AppendMessageParams struct {
	ChatID           int64
	SenderID         int64
	Type             string
	Content          string
	FilePath         *string
	FileName         *string
	FileSize         *int64
	Duration         *int64
	ReplyToMessageID *int64
}

// AppendMessage inserts a message and returns the stored row joined with the
// sender's display fields. The returned row carries the database-assigned id
// and timestamp, so two appends to the same chat never share an id.
func (s *Store) AppendMessage(ctx context.Context, p AppendMessageParams) (*Message, error) {
	if p.Type == "" {
		p.Type = "text"
	}
	var m Message
	err := s.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO messages (chat_id, sender_id, type, content, file_path, file_name, file_size, duration, reply_to_message_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, chat_id, sender_id, type, content, file_path, file_name,
			          file_size, duration, is_read, reply_to_message_id, created_at
		)
		SELECT i.id, i.chat_id, i.sender_id, i.type, i.content, i.file_path,
		       i.file_name, i.file_size, i.duration, i.is_read,
		       i.reply_to_message_id, i.created_at,
		       u.first_name, u.last_name, u.avatar
		FROM inserted i
		JOIN users u ON u.id = i.sender_id`,
		p.ChatID, p.SenderID, p.Type, p.Content, p.FilePath, p.FileName,
		p.FileSize, p.Duration, p.ReplyToMessageID).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Type, &m.Content, &m.FilePath,
			&m.FileName, &m.FileSize, &m.Duration, &m.IsRead,
			&m.ReplyToMessageID, &m.CreatedAt,
			&m.SenderFirstName, &m.SenderLastName, &m.SenderAvatar)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &m, nil
}

// ListMessages returns up to limit messages of the chat in chronological
// order, skipping offset rows. Limit is clamped to 100.
func (s *Store) ListMessages(ctx context.Context, chatID int64, limit, offset int) ([]MessageView, error) {
	if limit <= 0 || limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, m.type, m.content, m.file_path,
		       m.file_name, m.file_size, m.duration, m.is_read,
		       m.reply_to_message_id, m.created_at,
		       u.first_name, u.last_name, u.avatar
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.id
		LIMIT $2 OFFSET $3`,
		chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return collectMessageViews(rows)
}

// MarkAllRead flags every message in the chat not sent by the reader as read.
func (s *Store) MarkAllRead(ctx context.Context, chatID, readerID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE messages SET is_read = true
		WHERE chat_id = $1 AND sender_id <> $2 AND NOT is_read`,
		chatID, readerID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func collectMessageViews(rows pgx.Rows) ([]MessageView, error) {
	views := make([]MessageView, 0)
	for rows.Next() {
		var m Message
		err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Type, &m.Content,
			&m.FilePath, &m.FileName, &m.FileSize, &m.Duration, &m.IsRead,
			&m.ReplyToMessageID, &m.CreatedAt,
			&m.SenderFirstName, &m.SenderLastName, &m.SenderAvatar)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		views = append(views, m.View())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return views, nil
}
