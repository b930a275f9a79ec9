//-------------------------------------------------------------------------
//
// Kiosk Assistant - Knowledge Base Database
//
// Portions copyright (c) 2025, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package kbdatabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"kiosk-assistant/internal/kbtypes"
)

// DefaultTable is the table read by PostgresSource when none is configured
const DefaultTable = "kb_chunks"

// DefaultLoadTimeout bounds connecting to and reading the table
const DefaultLoadTimeout = 30 * time.Second

// PostgresSource loads the knowledge artifact from a PostgreSQL table with
// columns id, content, source, page, chunk_index and embedding (float8[])
type PostgresSource struct {
	DSN   string
	Table string

	// Timeout bounds the whole load; zero selects DefaultLoadTimeout
	Timeout time.Duration
}

// NewPostgresSource creates a source reading table through dsn
func NewPostgresSource(dsn, table string) *PostgresSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{DSN: dsn, Table: table}
}

// Query returns the SELECT statement used to read the table
func (p *PostgresSource) Query() string {
	ident := pgx.Identifier(strings.Split(p.Table, "."))
	return fmt.Sprintf(`SELECT id, content, source, page, chunk_index, embedding
        FROM %s
        ORDER BY source, page, chunk_index`, ident.Sanitize())
}

// Load reads every row of the table. The store loads with a context that
// is never cancelled, so the source applies its own deadline.
func (p *PostgresSource) Load(ctx context.Context) ([]kbtypes.RawChunk, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, p.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.Table, err)
	}
	defer rows.Close()

	var chunks []kbtypes.RawChunk
	for rows.Next() {
		var c kbtypes.RawChunk
		var embedding pgtype.FlatArray[pgtype.Float8]

		if err := rows.Scan(&c.ID, &c.Content, &c.Metadata.Source, &c.Metadata.Page,
			&c.Metadata.ChunkIndex, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Embedding = fromFloat8Array(embedding)

		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// Describe returns a human readable description of the source
func (p *PostgresSource) Describe() string {
	return "postgres:" + p.Table
}

func fromFloat8Array(values []pgtype.Float8) []*float64 {
	if values == nil {
		return nil
	}
	embedding := make([]*float64, len(values))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		f := v.Float64
		embedding[i] = &f
	}
	return embedding
}
