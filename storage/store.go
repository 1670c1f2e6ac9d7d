// Package storage provides read-only access to the health surveillance store.
//
// Information Hiding:
// - Driver selection (lib/pq, pgx, sqlite3) hidden behind Connector
// - Connection lifetime owned by the caller of Connect
// - Row iteration normalized across database/sql and pgx

package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrConnect marks failures to acquire a connection.
var ErrConnect = errors.New("store connection failed")

// Connector hands out one connection per call.
// Every Conn returned must be closed by the caller on all exit paths.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a single, caller-owned connection to the store.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Close() error
}

// Rows iterates a result set. It mirrors the subset of *sql.Rows that the
// retrieval operations need so pgx rows can satisfy it too.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (Conn, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSqlite   = "sqlite3"
)

// Open returns a Connector for the given driver and URL along with a close
// function for any process-wide handle it holds.
func Open(driver, url string) (Connector, func() error, error) {
	switch driver {
	case DriverPostgres:
		pg, err := OpenPostgres(url)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case DriverPgx:
		return NewPgxConnector(url), func() error { return nil }, nil
	case DriverSqlite:
		lite, err := OpenSqlite(url)
		if err != nil {
			return nil, nil, err
		}
		return lite, lite.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", driver)
	}
}

func connectError(err error) error {
	return fmt.Errorf("%w: %v", ErrConnect, err)
}
