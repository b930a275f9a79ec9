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
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kiosk-assistant/internal/kbtypes"
)

// Database represents a SQLite knowledge base file
type Database struct {
	db *sql.DB
}

// Open opens or creates the knowledge base database
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}

	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return d, nil
}

// Close closes the database
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) createSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chunks (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        content TEXT NOT NULL,
        source TEXT NOT NULL,
        page INTEGER NOT NULL DEFAULT 0,
        chunk_index INTEGER NOT NULL DEFAULT 0,

        -- Little-endian float64 values; NaN marks a null element
        embedding BLOB,

        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
    `

	_, err := d.db.Exec(schema)
	return err
}

// InsertChunks inserts or replaces chunks in a single transaction
func (d *Database) InsertChunks(chunks []kbtypes.RawChunk) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO chunks (id, content, source, page, chunk_index, embedding, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            content = excluded.content,
            source = excluded.source,
            page = excluded.page,
            chunk_index = excluded.chunk_index,
            embedding = excluded.embedding
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		createdAt := time.Now().UTC()
		if chunk.CreatedAt != nil {
			createdAt = *chunk.CreatedAt
		}

		_, err := stmt.Exec(
			chunk.ID,
			chunk.Content,
			chunk.Metadata.Source,
			chunk.Metadata.Page,
			chunk.Metadata.ChunkIndex,
			serializeEmbedding(chunk.Embedding),
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAllChunks retrieves all chunks in insertion order
func (d *Database) GetAllChunks(ctx context.Context) ([]kbtypes.RawChunk, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, content, source, page, chunk_index, embedding
        FROM chunks
        ORDER BY seq
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []kbtypes.RawChunk
	for rows.Next() {
		var c kbtypes.RawChunk
		var blob []byte

		err := rows.Scan(&c.ID, &c.Content, &c.Metadata.Source, &c.Metadata.Page,
			&c.Metadata.ChunkIndex, &blob)
		if err != nil {
			return nil, err
		}
		c.Embedding = deserializeEmbedding(blob)

		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// GetStats returns statistics about the database
func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalChunks int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&totalChunks)
	if err != nil {
		return nil, err
	}
	stats["total_chunks"] = totalChunks

	rows, err := d.db.Query(`
        SELECT source, COUNT(*)
        FROM chunks
        GROUP BY source
        ORDER BY source
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make([]map[string]interface{}, 0)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		sources = append(sources, map[string]interface{}{
			"source": name,
			"chunks": count,
		})
	}
	stats["sources"] = sources

	return stats, rows.Err()
}

// serializeEmbedding converts an embedding to bytes, storing nulls as NaN
func serializeEmbedding(embedding []*float64) []byte {
	if embedding == nil {
		return nil
	}
	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		bits := math.Float64bits(math.NaN())
		if v != nil {
			bits = math.Float64bits(*v)
		}
		binary.LittleEndian.PutUint64(buf[i*8:], bits)
	}
	return buf
}

// deserializeEmbedding converts bytes back to an embedding
func deserializeEmbedding(data []byte) []*float64 {
	if len(data) == 0 || len(data)%8 != 0 {
		return nil
	}

	embedding := make([]*float64, len(data)/8)
	for i := range embedding {
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		if math.IsNaN(v) {
			continue
		}
		embedding[i] = &v
	}
	return embedding
}

// SQLiteSource loads the knowledge artifact from a SQLite file
type SQLiteSource struct {
	Path string
}

// NewSQLiteSource creates a source for the SQLite file at path
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{Path: path}
}

// Load reads every chunk from the database
func (s *SQLiteSource) Load(ctx context.Context) ([]kbtypes.RawChunk, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("knowledge base database not available: %w", err)
	}

	db, err := Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.GetAllChunks(ctx)
}

// Describe returns a human readable description of the source
func (s *SQLiteSource) Describe() string {
	return "sqlite:" + s.Path
}
