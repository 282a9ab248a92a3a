package validator

import (
	"reflect"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Required fails for nil, empty strings and empty collections.
// Whitespace counts as input.
func Required() Rule {
	return Rule{Kind: KindRequired}
}

// MinLength fails when a present value is shorter than min characters.
func MinLength(min int) Rule {
	return Rule{Kind: KindMinLength, Limit: float64(min)}
}

// MaxLength fails when a present value is longer than max characters.
func MaxLength(max int) Rule {
	return Rule{Kind: KindMaxLength, Limit: float64(max)}
}

// IsEmpty reports whether v counts as "no input".
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Length counts Unicode code points after NFC normalization so that composed
// and decomposed input of the same text measure the same.
func Length(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// checkLength passes absent values; other values are measured as text unless
// they are collections.
func checkLength(v any, ok func(int) bool) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return ok(Length(val))
	case []any:
		return ok(len(val))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return ok(rv.Len())
	}
	return ok(Length(toText(v)))
}
