package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, phone, email, password_hash, first_name, last_name, avatar,
	telegram_id, telegram_username, phone_verified_at, email_verified_at,
	is_active, last_seen, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Phone, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Avatar, &u.TelegramID, &u.TelegramUsername, &u.PhoneVerifiedAt,
		&u.EmailVerifiedAt, &u.IsActive, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUserParams carries the fields settable at registration time.
type CreateUserParams struct {
	Phone         string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	PhoneVerified bool
}

// CreateUser inserts a new account and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (phone, email, password_hash, first_name, last_name, phone_verified_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $6 THEN now() ELSE NULL END)
		RETURNING `+userColumns,
		p.Phone, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.PhoneVerified)

	var u User
	err := row.Scan(
		&u.ID, &u.Phone, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Avatar, &u.TelegramID, &u.TelegramUsername, &u.PhoneVerifiedAt,
		&u.EmailVerifiedAt, &u.IsActive, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// GetUserByID returns the user or nil when no row matches.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByPhone returns the user or nil when no row matches.
func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// GetUserByEmail returns the user or nil when no row matches.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByTelegramID returns the user or nil when no row matches.
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

// CreateTelegramUser inserts an account created through Telegram login. The
// telegram identity is the credential; the NOT NULL UNIQUE phone and email
// columns are filled with per-identity placeholders so two telegram accounts
// never collide on them.
func (s *Store) CreateTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string, avatar *string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (phone, email, password_hash, first_name, last_name, avatar, telegram_id, telegram_username)
		VALUES ($1, $2, '', $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		telegramPlaceholderPhone(telegramID), telegramPlaceholderEmail(telegramID),
		firstName, lastName, avatar, telegramID, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("insert telegram user: no row returned")
	}
	return u, nil
}

func telegramPlaceholderPhone(telegramID int64) string {
	return fmt.Sprintf("tg_%d", telegramID)
}

func telegramPlaceholderEmail(telegramID int64) string {
	return fmt.Sprintf("%d@telegram.local", telegramID)
}

// UpdateTelegramProfile refreshes the display fields mirrored from Telegram.
func (s *Store) UpdateTelegramProfile(ctx context.Context, userID int64, username, firstName, lastName string, avatar *string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET telegram_username = $2, first_name = $3, last_name = $4,
		    avatar = COALESCE($5, avatar), updated_at = now()
		WHERE id = $1`,
		userID, username, firstName, lastName, avatar)
	if err != nil {
		return fmt.Errorf("update telegram profile: %w", err)
	}
	return nil
}

// UpdateLastSeen stamps the user's presence timestamp.
func (s *Store) UpdateLastSeen(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_seen = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}

// SearchUsersByPhone finds users whose phone contains the query, excluding the
// searcher and accounts that only carry a telegram placeholder number.
func (s *Store) SearchUsersByPhone(ctx context.Context, selfID int64, phone string) ([]UserSearchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, first_name, last_name, phone, avatar, telegram_username
		FROM users
		WHERE phone LIKE '%' || $2 || '%' AND phone NOT LIKE 'tg\_%' AND id <> $1
		ORDER BY id
		LIMIT 20`,
		selfID, phone)
	if err != nil {
		return nil, fmt.Errorf("search users by phone: %w", err)
	}
	defer rows.Close()
	return collectSearchResults(rows)
}

// SearchUsersByName finds users whose first or last name matches the query,
// case-insensitively, excluding the searcher.
func (s *Store) SearchUsersByName(ctx context.Context, selfID int64, name string) ([]UserSearchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, first_name, last_name, phone, avatar, telegram_username
		FROM users
		WHERE (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%')
		  AND id <> $1
		ORDER BY first_name, last_name
		LIMIT 20`,
		selfID, name)
	if err != nil {
		return nil, fmt.Errorf("search users by name: %w", err)
	}
	defer rows.Close()
	return collectSearchResults(rows)
}

func collectSearchResults(rows pgx.Rows) ([]UserSearchResult, error) {
	results := make([]UserSearchResult, 0)
	for rows.Next() {
		var r UserSearchResult
		if err := rows.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Phone, &r.Avatar, &r.TelegramUsername); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return results, nil
}
