/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Answer Composer
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package compose

import (
	"regexp"
	"sort"
	"strings"
)

// Excerpt limits
const (
	MaxSummaryRunes = 400
	MaxExcerptRunes = 500
	maxMatchLines   = 3
	linesBefore     = 2
	linesAfter      = 1
)

var (
	emailPattern      = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	spaceRunPattern   = regexp.MustCompile(`\s{2,}`)
)

// Excerpt returns the lines of content most relevant to the query tokens,
// each with two lines of context before and one after. Email addresses are
// removed; phone numbers are kept. Without any matching line a whitespace
// collapsed summary of the whole content is returned.
func Excerpt(content string, tokens []string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	type scoredLine struct {
		idx   int
		score int
	}
	var matches []scoredLine
	for i, line := range lines {
		lower := strings.ToLower(line)
		score := 0
		for _, t := range tokens {
			if strings.Contains(lower, t) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scoredLine{idx: i, score: score})
		}
	}

	if len(matches) == 0 {
		summary := strings.TrimSpace(whitespacePattern.ReplaceAllString(content, " "))
		return truncateRunes(summary, MaxSummaryRunes)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxMatchLines {
		matches = matches[:maxMatchLines]
	}

	selected := make(map[int]bool)
	for _, m := range matches {
		for i := max(0, m.idx-linesBefore); i <= min(len(lines)-1, m.idx+linesAfter); i++ {
			selected[i] = true
		}
	}

	indices := make([]int, 0, len(selected))
	for i := range selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	picked := make([]string, 0, len(indices))
	for _, i := range indices {
		picked = append(picked, lines[i])
	}

	cleaned := emailPattern.ReplaceAllString(strings.Join(picked, "\n"), "")
	cleaned = strings.TrimSpace(spaceRunPattern.ReplaceAllString(cleaned, " "))
	return truncateRunes(cleaned, MaxExcerptRunes)
}

// truncateRunes caps s at limit runes, ending in "..." when cut
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
