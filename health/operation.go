// Package health implements the retrieval operations the agent can call.
//
// Information Hiding:
// - SQL text and column mapping hidden per operation
// - Argument grammar (CSV, key=value, JSON) hidden behind parsers
// - Connection lifecycle hidden: one connection per invocation, always closed
// - Failures surface only as tools.ToolResult markers
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/richinex/healthradar/internal/logging"
	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// Deps are the shared collaborators of every operation.
type Deps struct {
	Connector storage.Connector
	Clock     clockwork.Clock // nil means the real clock
	Logger    *slog.Logger    // nil discards
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return d
}

// queryFunc runs one bounded read. since is the inclusive cutoff date.
type queryFunc[A, R any] func(ctx context.Context, conn storage.Conn, args A, now time.Time) ([]R, error)

// Operation is a typed retrieval operation exposed to the agent as a tools.Tool.
type Operation[A, R any] struct {
	meta   tools.ToolMetadata
	source string
	rowCap int
	parse  func(string) (A, error)
	query  queryFunc[A, R]
	deps   Deps
}

// Payload is the JSON document returned to the model on success.
type Payload[R any] struct {
	Operation string `json:"operation"`
	Rows      []R    `json:"rows"`
	RowCount  int    `json:"row_count"`
	RowCap    int    `json:"row_cap"`
}

// Metadata returns the name, description and parameter schema.
func (o *Operation[A, R]) Metadata() tools.ToolMetadata {
	return o.meta
}

// Source is the data-source identifier reported to callers.
func (o *Operation[A, R]) Source() string {
	return o.source
}

// Invoke parses the input, runs the query on a fresh connection and
// serializes the rows.
func (o *Operation[A, R]) Invoke(ctx context.Context, input string) tools.ToolResult {
	name := o.meta.Name
	log := o.deps.Logger.With("operation", name)

	args, err := o.parse(input)
	if err != nil {
		log.Debug("rejected input", "input", input, "error", err)
		return tools.InputFailure(err)
	}

	conn, err := o.deps.Connector.Connect(ctx)
	if err != nil {
		log.Error("store connect failed", "error", err)
		return tools.ExecutionFailure(fmt.Errorf("could not reach the data store: %v", err), errors.Is(err, storage.ErrConnect))
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("failed to release connection", "error", err)
		}
	}()

	rows, err := o.query(ctx, conn, args, o.deps.Clock.Now())
	if err != nil {
		log.Error("query failed", "error", err)
		return tools.ExecutionFailure(fmt.Errorf("%s query failed: %v", name, err), false)
	}
	if rows == nil {
		rows = []R{}
	}

	out, err := json.Marshal(Payload[R]{
		Operation: name,
		Rows:      rows,
		RowCount:  len(rows),
		RowCap:    o.rowCap,
	})
	if err != nil {
		return tools.ExecutionFailure(fmt.Errorf("failed to encode %s result: %v", name, err), false)
	}

	log.Debug("query succeeded", "rows", len(rows))
	return tools.SuccessResult(string(out))
}

// collect drains rows through scan and always closes them.
func collect[R any](rows storage.Rows, scan func(storage.Rows) (R, error)) ([]R, error) {
	defer rows.Close()

	out := []R{}
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

// cutoff returns the first date inside a lookback window, formatted for SQL.
func cutoff(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

// truncate limits s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
