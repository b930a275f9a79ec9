/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Knowledge Store
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package kbstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"kiosk-assistant/internal/kbtypes"
)

// FileSource reads a JSON array of chunk records from disk
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the JSON artifact at path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and decodes the artifact
func (f *FileSource) Load(ctx context.Context) ([]kbtypes.RawChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	var raw []kbtypes.RawChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Path, err)
	}
	return raw, nil
}

// Describe returns a human readable description of the source
func (f *FileSource) Describe() string {
	return "file:" + f.Path
}

// WriteFile writes chunks as a JSON artifact readable by FileSource
func WriteFile(path string, chunks []kbtypes.RawChunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode knowledge artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
