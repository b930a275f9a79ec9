/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Phone Directory
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package directory turns phone directory text into structured contacts
package directory

import (
	"fmt"
	"strings"

	"kiosk-assistant/internal/kbtypes"
)

// DefaultMarker identifies phone directory sources by name
const DefaultMarker = "central_telefonica"

// fallbackCount is how many entries are returned when none match the query
const fallbackCount = 2

// Extraction is the outcome of extracting contacts from directory text
type Extraction struct {
	Contacts []kbtypes.Contact
	Intro    string
}

// Found reports whether any contact was extracted
func (e Extraction) Found() bool {
	return len(e.Contacts) > 0
}

// IsDirectorySource reports whether a source name contains any of the
// markers, case-insensitively. With no markers DefaultMarker is used.
func IsDirectorySource(source string, markers []string) bool {
	if len(markers) == 0 {
		markers = []string{DefaultMarker}
	}
	lower := strings.ToLower(source)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Extract parses text and returns the entries best matching the query
// tokens together with a short introduction
func Extract(text string, tokens []string) Extraction {
	entries := Select(Parse(text), tokens)
	if len(entries) == 0 {
		return Extraction{}
	}

	contacts := make([]kbtypes.Contact, 0, len(entries))
	for _, e := range entries {
		contacts = append(contacts, kbtypes.Contact{
			Name:       e.Name,
			Phone:      e.Phone,
			Department: e.Department(),
		})
	}
	return Extraction{Contacts: contacts, Intro: Intro(entries)}
}

// Select keeps the entries tied for the most query tokens matched. When no
// entry matches any token the first two are returned.
func Select(entries []Entry, tokens []string) []Entry {
	if len(entries) == 0 {
		return nil
	}

	counts := make([]int, len(entries))
	best := 0
	for i, e := range entries {
		text := strings.ToLower(e.Name + " " + e.Department() + " " + e.Subject)
		for _, t := range tokens {
			if strings.Contains(text, t) {
				counts[i]++
			}
		}
		best = max(best, counts[i])
	}

	if best == 0 {
		return entries[:min(fallbackCount, len(entries))]
	}

	var selected []Entry
	for i, e := range entries {
		if counts[i] == best {
			selected = append(selected, e)
		}
	}
	return selected
}

// Intro is the sentence shown above the contact cards
func Intro(entries []Entry) string {
	switch len(entries) {
	case 0:
		return ""
	case 1:
		if dept := entries[0].Department(); dept != "" {
			return fmt.Sprintf("Segue o contacto para %s:", dept)
		}
		return fmt.Sprintf("Segue o contacto de %s:", entries[0].Name)
	}

	for _, e := range entries {
		if dept := e.Department(); dept != "" {
			return fmt.Sprintf("Contactos para %s:", dept)
		}
	}
	return "Contactos encontrados:"
}
