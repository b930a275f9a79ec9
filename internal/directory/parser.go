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

import "strings"

// Entry is one parsed directory line
type Entry struct {
	Name      string
	Phone     string
	Extension string
	Division  string
	// Subject is the topic the person handles, inline or from preceding
	// lines; may be empty
	Subject string
}

// Department is the subject, or the division code when there is none
func (e Entry) Department() string {
	if e.Subject != "" {
		return e.Subject
	}
	return e.Division
}

// Parse extracts every entry from directory text. Lines without a phone,
// extension and division are treated as subject text for the entries that
// follow them.
func Parse(text string) []Entry {
	lines := splitLines(text)

	var entries []Entry
	for i, line := range lines {
		entry, ok := parseLine(line)
		if !ok {
			continue
		}
		if entry.Subject == "" {
			entry.Subject = subjectAbove(lines, i)
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseLine splits a single line into its fields. The subject is only set
// when it appears inline.
func parseLine(line string) (Entry, bool) {
	loc := phonePattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Entry{}, false
	}
	phone := line[loc[2]:loc[3]]
	rest := strings.TrimSpace(line[:loc[0]])

	loc = extensionPattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return Entry{}, false
	}
	ext := rest[loc[2]:loc[3]]
	rest = strings.TrimSpace(rest[:loc[0]])

	loc = divisionPattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return Entry{}, false
	}
	division := rest[loc[2]:loc[3]]
	rest = strings.TrimSpace(rest[:loc[0]])

	entry := Entry{Phone: phone, Extension: ext, Division: division}

	if m := priorityPattern.FindStringSubmatch(rest); m != nil {
		entry.Subject = strings.TrimSpace(m[1])
		entry.Name = strings.TrimSpace(m[3])
		return entry, true
	}

	// Without a priority marker the name is the last two words
	words := strings.Fields(rest)
	if len(words) >= 2 {
		entry.Name = strings.Join(words[len(words)-2:], " ")
		entry.Subject = strings.Join(words[:len(words)-2], " ")
	} else {
		entry.Name = rest
	}
	return entry, true
}

// subjectAbove collects the lines above index i up to the previous entry,
// a table header or a page marker
func subjectAbove(lines []string, i int) string {
	var collected []string
	for j := i - 1; j >= 0; j-- {
		prev := lines[j]
		if phonePattern.MatchString(prev) ||
			headerPattern.MatchString(prev) ||
			pageMarkerPattern.MatchString(prev) {
			break
		}
		collected = append(collected, prev)
	}

	// collected is bottom-up
	for l, r := 0, len(collected)-1; l < r; l, r = l+1, r-1 {
		collected[l], collected[r] = collected[r], collected[l]
	}
	return collapseSpace(strings.Join(collected, " "))
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
