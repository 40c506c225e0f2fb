package store

import (
	"context"
	"errors"

	"turna/internal/platform/store/ch"
)

// chClient is the slice of *ch.CH the adapter needs, split out for tests
type chClient interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// newCHAdapter wraps a clickhouse client in the store.Clickhouse seam
func newCHAdapter(c chClient) Clickhouse {
	return &chAdapter{c: c}
}

// chAdapter adapts the ch client to the store.Clickhouse interface
type chAdapter struct {
	c chClient
}

var _ Clickhouse = (*chAdapter)(nil)

func (a *chAdapter) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return errors.New("store: unsupported CH insert shape (want [][]any)")
	}
	return a.c.Insert(ctx, table, rows)
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r: r}, nil
}

func (a *chAdapter) Close() error { return a.c.Close() }

// Ping verifies connectivity with clickhouse
func (a *chAdapter) Ping(ctx context.Context) error {
	if a == nil || a.c == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.c.Ping(ctx)
}

// chRows wraps ch.Rows as store.Rows
type chRows struct {
	r ch.Rows
}

func (r chRows) Next() bool             { return r.r.Next() }
func (r chRows) Scan(dest ...any) error { return r.r.Scan(dest...) }
func (r chRows) Err() error             { return r.r.Err() }
func (r chRows) Close()                 { _ = r.r.Close() }
func (r chRows) Columns() []string      { return r.r.Columns() }
