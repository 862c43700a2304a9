package query

import "strings"

// SortField represents a single ordering term.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// ParseSortFields parses a comma-separated sort expression. A "-" prefix
// marks a field as descending: "name,-updated_at".
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: rest, Descending: true})
		} else {
			fields = append(fields, SortField{Field: part})
		}
	}
	return fields
}
