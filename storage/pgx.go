package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PgxConnector opens a brand-new PostgreSQL connection on every Connect and
// tears it down on Close. No pooling.
type PgxConnector struct {
	url string
}

// NewPgxConnector creates a connector for the given connection URL.
func NewPgxConnector(url string) *PgxConnector {
	return &PgxConnector{url: url}
}

// Connect dials the database.
func (c *PgxConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := pgx.Connect(ctx, c.url)
	if err != nil {
		return nil, connectError(err)
	}
	return &pgxConn{conn: conn}, nil
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

// Close uses a fresh context so the connection is released even when the
// query context has already been cancelled.
func (c *pgxConn) Close() error {
	return c.conn.Close(context.Background())
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}

var _ Connector = (*PgxConnector)(nil)
