package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope pins one pooled connection for the duration of a request.
// Every repository call inside the request runs on the same connection, so a
// service can Begin a transaction on it and have subsequent repository calls
// execute inside that transaction. That is how cross-record commands (e.g.
// milestone progress granting reputation points) stay atomic.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close releases the connection back to the pool.
// This MUST be called at the end of the request.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// AcquireScope acquires a connection from the pool for one request.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) AcquireScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn}, nil
}
