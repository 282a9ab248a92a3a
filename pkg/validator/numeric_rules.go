package validator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// IsNumeric fails when a present value cannot be read as a number.
// An empty string is present input and therefore fails.
func IsNumeric() Rule {
	return Rule{Kind: KindNumeric}
}

// MinValue validates that a numeric value is greater than or equal to min.
// Non-numeric values pass; pair it with IsNumeric to reject them.
func MinValue[T Numeric](min T) Rule {
	return Rule{Kind: KindMinValue, Limit: float64(min)}
}

// MaxValue validates that a numeric value is less than or equal to max.
func MaxValue[T Numeric](max T) Rule {
	return Rule{Kind: KindMaxValue, Limit: float64(max)}
}

// ToFloat converts numbers and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case float64:
		return n, !math.IsNaN(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func checkNumeric(v any) bool {
	if v == nil {
		return true
	}
	_, ok := ToFloat(v)
	return ok
}

func checkBound(v any, ok func(float64) bool) bool {
	f, isNum := ToFloat(v)
	if !isNum {
		return true
	}
	return ok(f)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	}
	return fmt.Sprint(v)
}
