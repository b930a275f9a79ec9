/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Phone Directory
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package directory

import "regexp"

// Line layout, read right to left:
//
//	[subject] [priority -] name DIVISION EXT PHONE
//
// e.g. "Jovens Agricultores 1.ª - Manuela Joia DAEA 2454 21 844 24 54"
var (
	// phonePattern matches a nine digit national landline at end of line
	phonePattern = regexp.MustCompile(`(2\d\s*\d{3}\s*\d{2}\s*\d{2})\s*$`)

	// extensionPattern matches the four digit internal extension
	extensionPattern = regexp.MustCompile(`(\d{4})\s*$`)

	// divisionPattern matches an upper-case division code such as DSR or
	// DSPAA/DGRN
	divisionPattern = regexp.MustCompile(`([A-Z]{2,}(?:/[A-Z]{2,})?)\s*$`)

	// priorityPattern splits "subject 1.ª - name"
	priorityPattern = regexp.MustCompile(`^(.*?)(\d+\.(?:ª|º|a|o))\s*-\s*(.+)$`)

	// headerPattern matches table headers that end a subject walk
	headerPattern = regexp.MustCompile(`(?i)^(?:Assunto|DS\.|Ext\.|Tel\.)`)

	// pageMarkerPattern matches page separators left by PDF extraction
	pageMarkerPattern = regexp.MustCompile(`^--\s*\d+\s*of\s*\d+\s*--$`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)
