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

import "kiosk-assistant/internal/kbtypes"

// Validate converts raw artifact records into chunks. A record is kept only
// if its embedding is non-empty with no null elements and has the same
// length as the first valid record. It returns the kept chunks, their
// shared dimension and the number of records dropped.
func Validate(raw []kbtypes.RawChunk) ([]*kbtypes.Chunk, int, int) {
	entries := make([]*kbtypes.Chunk, 0, len(raw))
	dims := 0
	dropped := 0

	for _, r := range raw {
		vec, ok := toVector(r.Embedding)
		if !ok {
			dropped++
			continue
		}
		if dims == 0 {
			dims = len(vec)
		} else if len(vec) != dims {
			dropped++
			continue
		}

		entries = append(entries, &kbtypes.Chunk{
			ID:        r.ID,
			Content:   r.Content,
			Embedding: vec,
			Metadata:  r.Metadata,
		})
	}

	return entries, dims, dropped
}

func toVector(embedding []*float64) ([]float64, bool) {
	if len(embedding) == 0 || embedding[0] == nil {
		return nil, false
	}

	vec := make([]float64, len(embedding))
	for i, v := range embedding {
		if v == nil {
			return nil, false
		}
		vec[i] = *v
	}
	return vec, true
}

// ToRaw converts a chunk back to its artifact form
func ToRaw(c kbtypes.Chunk) kbtypes.RawChunk {
	var embedding []*float64
	if c.Embedding != nil {
		embedding = make([]*float64, len(c.Embedding))
		for i := range c.Embedding {
			v := c.Embedding[i]
			embedding[i] = &v
		}
	}
	return kbtypes.RawChunk{
		ID:        c.ID,
		Content:   c.Content,
		Embedding: embedding,
		Metadata:  c.Metadata,
	}
}
