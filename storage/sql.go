package storage

import (
	"context"
	"database/sql"
)

// SQLConnector hands out dedicated connections from a *sql.DB.
// Each Connect checks out one *sql.Conn; Close returns it.
type SQLConnector struct {
	db *sql.DB
}

// NewSQLConnector wraps an open *sql.DB.
func NewSQLConnector(db *sql.DB) *SQLConnector {
	return &SQLConnector{db: db}
}

// Connect acquires a dedicated connection.
func (c *SQLConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return &sqlConn{conn: conn}, nil
}

// DB returns the underlying handle.
func (c *SQLConnector) DB() *sql.DB {
	return c.db
}

// Ping tests the database connection.
func (c *SQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database handle.
func (c *SQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

var _ Connector = (*SQLConnector)(nil)
