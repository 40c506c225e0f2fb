// Package ch provides a clickhouse client
package ch

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL        string
	ClientName string
	ClientTag  string
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

// Open parses the DSN and dials clickhouse
// the first ping happens lazily so boot does not block on a cold mirror
func Open(_ context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Insert appends rows to table as a single batch
// rows carry values in DDL column order
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch: prepare batch: %w", err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("ch: append: %w", err)
		}
	}
	return batch.Send()
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Ping reports connection health
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the underlying connection
func (c *CH) Close() error { return c.conn.Close() }

// driver.Rows satisfies Rows; keep the assertion next to the interface
var _ Rows = (driver.Rows)(nil)
