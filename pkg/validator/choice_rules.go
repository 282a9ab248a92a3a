package validator

import "reflect"

// EqualsOneOf passes when the value equals the current value of the field at
// ref, or any of the extra literals. The referenced value is read at
// evaluation time, never captured when the rule is built.
func EqualsOneOf(ref string, literals ...any) Rule {
	return Rule{Kind: KindEqualsOneOf, Ref: ref, Values: literals}
}

// OneOf passes when a present value is one of the allowed values.
func OneOf(allowed ...any) Rule {
	return Rule{Kind: KindOneOf, Values: allowed}
}

// NoneOf fails when the value is one of the forbidden values.
func NoneOf(forbidden ...any) Rule {
	return Rule{Kind: KindNoneOf, Values: forbidden}
}

func checkEqualsOneOf(v any, ref string, literals []any, siblings Siblings) bool {
	if v == nil {
		return true
	}
	if other, ok := siblings.Lookup(ref); ok && Equal(v, other) {
		return true
	}
	return containsValue(literals, v)
}

func containsValue(list []any, v any) bool {
	for _, candidate := range list {
		if Equal(candidate, v) {
			return true
		}
	}
	return false
}

// Equal compares two field values. Numbers of different Go types compare by
// value; strings never equal numbers.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		af, aok := ToFloat(a)
		bf, bok := ToFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}
