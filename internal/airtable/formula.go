package airtable

import (
	"fmt"
	"strings"
	"time"
)

// escapeFormulaString makes a dynamic value safe inside a single-quoted
// formula literal.
func escapeFormulaString(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}

// FieldEquals builds a `{Field} = 'value'` formula clause.
func FieldEquals(field, value string) string {
	return fmt.Sprintf("{%s} = '%s'", field, escapeFormulaString(value))
}

// OnOrAfter builds a clause matching records whose date field is at or after t.
func OnOrAfter(field string, t time.Time) string {
	return fmt.Sprintf("OR(IS_SAME({%s}, '%s'), IS_AFTER({%s}, '%s'))",
		field, t.Format(time.RFC3339), field, t.Format(time.RFC3339))
}

// And combines clauses, dropping empty ones. A single clause passes through
// without the AND() wrapper.
func And(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return fmt.Sprintf("AND(%s)", strings.Join(parts, ", "))
}
