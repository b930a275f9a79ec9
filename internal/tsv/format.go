/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Tabular Output
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package tsv renders tool output as tab-separated text, which costs a
// model far fewer tokens than JSON
package tsv

import (
	"fmt"
	"strconv"
	"strings"

	"kiosk-assistant/internal/kbtypes"
)

var escaper = strings.NewReplacer("\t", `\t`, "\n", `\n`, "\r", `\r`)

// FormatValue converts a value to a TSV-safe string. nil becomes empty.
func FormatValue(v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', 3, 64)
	case float32:
		s = strconv.FormatFloat(float64(val), 'f', 3, 32)
	case int:
		s = strconv.Itoa(val)
	case bool:
		s = strconv.FormatBool(val)
	default:
		s = fmt.Sprintf("%v", val)
	}
	return escaper.Replace(s)
}

// Table renders a header row followed by data rows
func Table(header []string, rows [][]interface{}) string {
	if len(header) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(BuildRow(header...))
	for _, row := range rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = FormatValue(v)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(values, "\t"))
	}
	return sb.String()
}

// BuildRow creates a single TSV row from string values
func BuildRow(values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = escaper.Replace(v)
	}
	return strings.Join(escaped, "\t")
}

// Contacts renders contacts with a name, phone, email, department header
func Contacts(contacts []kbtypes.Contact) string {
	rows := make([][]interface{}, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []interface{}{c.Name, c.Phone, c.Email, c.Department})
	}
	return Table([]string{"name", "phone", "email", "department"}, rows)
}
