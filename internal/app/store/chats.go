package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// FindChat returns the chat or nil when no row matches.
func (s *Store) FindChat(ctx context.Context, chatID int64) (*Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx, `
		SELECT id, type, name, avatar, created_at, updated_at
		FROM chats WHERE id = $1`, chatID).
		Scan(&c.ID, &c.Type, &c.Name, &c.Avatar, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &c, nil
}

// IsActiveParticipant reports whether the user currently belongs to the chat.
// Rows with left_at set do not count.
func (s *Store) IsActiveParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat_participants
			WHERE chat_id = $1 AND user_id = $2 AND left_at IS NULL
		)`, chatID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

// ListUserChats returns the chat list for one user: each chat the user is an
// active participant of, with the display name resolved (the chat's own name,
// or the other participant's name for private chats), the latest message
// preview, and the count of unread messages sent by others.
func (s *Store) ListUserChats(ctx context.Context, userID int64) ([]ChatSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.type, c.avatar,
		       COALESCE(c.name, other.first_name || ' ' || other.last_name, 'Chat') AS name,
		       other.phone,
		       lm.content, lm.created_at,
		       (SELECT count(*) FROM messages m
		        WHERE m.chat_id = c.id AND m.sender_id <> $1 AND NOT m.is_read) AS unread_count
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id AND cp.user_id = $1 AND cp.left_at IS NULL
		LEFT JOIN LATERAL (
			SELECT u.first_name, u.last_name, u.phone
			FROM chat_participants cp2
			JOIN users u ON u.id = cp2.user_id
			WHERE cp2.chat_id = c.id AND cp2.user_id <> $1 AND cp2.left_at IS NULL
			LIMIT 1
		) other ON c.type = 'private'
		LEFT JOIN LATERAL (
			SELECT m.content, m.created_at
			FROM messages m
			WHERE m.chat_id = c.id
			ORDER BY m.id DESC
			LIMIT 1
		) lm ON true
		ORDER BY lm.created_at DESC NULLS LAST, c.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list user chats: %w", err)
	}
	defer rows.Close()

	chats := make([]ChatSummary, 0)
	for rows.Next() {
		var (
			cs       ChatSummary
			lastTime *time.Time
		)
		err := rows.Scan(&cs.ID, &cs.Type, &cs.Avatar, &cs.Name, &cs.Phone,
			&cs.LastMessage, &lastTime, &cs.UnreadCount)
		if err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		cs.LastMessageTime = formatNullableTime(lastTime)
		chats = append(chats, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

// FindPrivateChatBetween returns the existing private chat shared by the two
// users, or nil when none exists.
func (s *Store) FindPrivateChatBetween(ctx context.Context, userA, userB int64) (*Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.type, c.name, c.avatar, c.created_at, c.updated_at
		FROM chats c
		JOIN chat_participants pa ON pa.chat_id = c.id AND pa.user_id = $1 AND pa.left_at IS NULL
		JOIN chat_participants pb ON pb.chat_id = c.id AND pb.user_id = $2 AND pb.left_at IS NULL
		WHERE c.type = 'private'
		LIMIT 1`, userA, userB).
		Scan(&c.ID, &c.Type, &c.Name, &c.Avatar, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find private chat: %w", err)
	}
	return &c, nil
}

// CreatePrivateChat creates a private chat between two users and enrolls both
// as participants, in a single transaction.
func (s *Store) CreatePrivateChat(ctx context.Context, userA, userB int64) (*Chat, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var c Chat
	err = tx.QueryRow(ctx, `
		INSERT INTO chats (type) VALUES ('private')
		RETURNING id, type, name, avatar, created_at, updated_at`).
		Scan(&c.ID, &c.Type, &c.Name, &c.Avatar, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2), ($1, $3)`,
		c.ID, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("insert participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &c, nil
}

// RemoveParticipant marks the user's active membership as left. The partial
// unique index permits a fresh active row for the same pair afterwards.
func (s *Store) RemoveParticipant(ctx context.Context, chatID, userID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_participants SET left_at = now()
		WHERE chat_id = $1 AND user_id = $2 AND left_at IS NULL`,
		chatID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}
