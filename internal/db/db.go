// Package db provides PostgreSQL persistence for sessions, evaluations,
// oversight requests and the audit ledger. It implements the repository
// interfaces the engine depends on; structured fields are stored as JSONB
// so the repository stays thin.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/hiring-panel/internal/store"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Interface conformance checks
var (
	_ store.SessionStore   = (*DB)(nil)
	_ store.OversightStore = (*DB)(nil)
	_ store.AuditStore     = (*DB)(nil)
)
