package store

import (
	"context"
	"fmt"
)

// ListContacts returns the user's contact list with each contact's display
// fields attached.
func (s *Store) ListContacts(ctx context.Context, userID int64) ([]Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.contact_user_id, c.nickname, c.added_at,
		       u.first_name, u.last_name, u.phone, u.avatar, u.telegram_username
		FROM contacts c
		JOIN users u ON u.id = c.contact_user_id
		WHERE c.user_id = $1
		ORDER BY u.first_name, u.last_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		err := rows.Scan(&c.ID, &c.UserID, &c.ContactUserID, &c.Nickname, &c.AddedAt,
			&c.ContactInfo.FirstName, &c.ContactInfo.LastName, &c.ContactInfo.Phone,
			&c.ContactInfo.Avatar, &c.ContactInfo.TelegramUsername)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.ContactInfo.ID = c.ContactUserID
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// AddContact records contactUserID in the user's contact list. The unique
// constraint on (user_id, contact_user_id) rejects duplicates; callers map
// that to the duplicate-contact error.
func (s *Store) AddContact(ctx context.Context, userID, contactUserID int64, nickname *string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (user_id, contact_user_id, nickname)
		VALUES ($1, $2, $3)`,
		userID, contactUserID, nickname)
	if err != nil {
		return fmt.Errorf("add contact: %w", err)
	}
	return nil
}

// RemoveContact deletes the contact entry and reports whether a row existed.
func (s *Store) RemoveContact(ctx context.Context, userID, contactUserID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM contacts WHERE user_id = $1 AND contact_user_id = $2`,
		userID, contactUserID)
	if err != nil {
		return false, fmt.Errorf("remove contact: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SearchContacts filters the user's contact list by name, nickname, or phone
// substring, case-insensitively.
func (s *Store) SearchContacts(ctx context.Context, userID int64, query string) ([]Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.contact_user_id, c.nickname, c.added_at,
		       u.first_name, u.last_name, u.phone, u.avatar, u.telegram_username
		FROM contacts c
		JOIN users u ON u.id = c.contact_user_id
		WHERE c.user_id = $1
		  AND (u.first_name ILIKE '%' || $2 || '%'
		       OR u.last_name ILIKE '%' || $2 || '%'
		       OR c.nickname ILIKE '%' || $2 || '%'
		       OR u.phone LIKE '%' || $2 || '%')
		ORDER BY u.first_name, u.last_name`,
		userID, query)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		err := rows.Scan(&c.ID, &c.UserID, &c.ContactUserID, &c.Nickname, &c.AddedAt,
			&c.ContactInfo.FirstName, &c.ContactInfo.LastName, &c.ContactInfo.Phone,
			&c.ContactInfo.Avatar, &c.ContactInfo.TelegramUsername)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.ContactInfo.ID = c.ContactUserID
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}
