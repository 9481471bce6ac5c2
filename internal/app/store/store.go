package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence gateway. All methods are safe for concurrent use;
// the underlying pool serializes access to connections.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
