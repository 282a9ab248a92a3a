package sanitizer

import (
	"strings"
	"unicode"
)

// RemoveControlChars removes control characters except newline, carriage
// return and tab.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// Path trims whitespace and drops every control or space character inside
// a field path such as "skills[0].name".
func Path(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// Value returns v with RemoveControlChars applied to every string it
// contains. Maps and slices are copied; other values are returned as is.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return RemoveControlChars(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Value(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Value(item)
		}
		return out
	}
	return v
}
