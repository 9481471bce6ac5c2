// Package verify issues and checks short-lived phone verification codes.
// Codes live in redis under verify:{purpose}:{phone} and expire on their own;
// a successful check consumes the code.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"relaychat/internal/pkg/randx"
)

const codeTTL = 15 * time.Minute

// Service stores verification codes in redis.
type Service struct {
	rdb *redis.Client
}

// New connects to redis and pings it once to fail fast on bad config.
func New(ctx context.Context, addr, password string) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Service{rdb: rdb}, nil
}

func codeKey(purpose, phone string) string {
	return "verify:" + purpose + ":" + phone
}

// IssueCode generates a fresh 6-digit code for the phone and purpose,
// replacing any previous one, and returns it for delivery.
func (s *Service) IssueCode(ctx context.Context, purpose, phone string) (string, error) {
	code, err := randx.VerificationCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	if err := s.rdb.Set(ctx, codeKey(purpose, phone), code, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// CheckCode reports whether the code matches the one on file. A match
// consumes the code; a mismatch leaves it in place for another attempt until
// the TTL runs out.
func (s *Service) CheckCode(ctx context.Context, purpose, phone, code string) (bool, error) {
	stored, err := s.rdb.Get(ctx, codeKey(purpose, phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load code: %w", err)
	}
	if stored != code {
		return false, nil
	}
	if err := s.rdb.Del(ctx, codeKey(purpose, phone)).Err(); err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	return true, nil
}

// Close releases the redis connection.
func (s *Service) Close() error {
	return s.rdb.Close()
}
