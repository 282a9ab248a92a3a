package validator

import (
	"context"
	"errors"
	"fmt"
)

// Kind tags a rule descriptor and the failure it produces.
type Kind string

const (
	KindRequired    Kind = "required"
	KindMinLength   Kind = "min_length"
	KindMaxLength   Kind = "max_length"
	KindNumeric     Kind = "numeric"
	KindMinValue    Kind = "min_value"
	KindMaxValue    Kind = "max_value"
	KindEqualsOneOf Kind = "equals_one_of"
	KindOneOf       Kind = "one_of"
	KindNoneOf      Kind = "none_of"
	KindRemote      Kind = "remote"

	// KindTransport is only produced by failures, never declared on a rule.
	KindTransport Kind = "transport"
)

// Siblings gives a rule live read access to other values of the form.
type Siblings interface {
	Lookup(path string) (any, bool)
}

// SiblingsFunc adapts a function to the Siblings interface.
type SiblingsFunc func(path string) (any, bool)

func (f SiblingsFunc) Lookup(path string) (any, bool) { return f(path) }

// MapSiblings is a static Siblings backed by a flat path map.
type MapSiblings map[string]any

func (m MapSiblings) Lookup(path string) (any, bool) {
	v, ok := m[path]
	return v, ok
}

// Rule is a tagged rule descriptor. The zero value is not usable; construct
// rules with Required, MinLength, Remote and friends.
type Rule struct {
	Name    string
	Kind    Kind
	Message string
	Limit   float64
	Ref     string
	Values  []any
	Checker RemoteChecker
}

// Key returns the name errors produced by the rule are collected under.
func (r Rule) Key() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Kind)
}

// IsAsync reports whether evaluating the rule may suspend on external I/O.
func (r Rule) IsAsync() bool {
	return r.Kind == KindRemote
}

// Named overrides the collection key of the rule.
func (r Rule) Named(name string) Rule {
	r.Name = name
	return r
}

// WithMessage overrides the failure message of the rule.
func (r Rule) WithMessage(msg string) Rule {
	r.Message = msg
	return r
}

// Validate reports descriptor problems that make the rule unusable.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindRequired, KindNumeric:
	case KindMinLength, KindMaxLength:
		if r.Limit < 0 {
			return errors.Join(ErrInvalidRule, fmt.Errorf("%s: negative length %v", r.Key(), r.Limit))
		}
	case KindMinValue, KindMaxValue:
	case KindEqualsOneOf:
		if r.Ref == "" {
			return errors.Join(ErrInvalidRule, fmt.Errorf("%s: missing reference path", r.Key()))
		}
	case KindOneOf, KindNoneOf:
		if len(r.Values) == 0 {
			return errors.Join(ErrInvalidRule, fmt.Errorf("%s: empty value list", r.Key()))
		}
	case KindRemote:
		if r.Checker == nil {
			return errors.Join(ErrInvalidRule, fmt.Errorf("%s: remote rule without checker", r.Key()))
		}
	default:
		return errors.Join(ErrInvalidRule, fmt.Errorf("unknown rule kind %q", r.Kind))
	}
	return nil
}

// Evaluate runs the rule against value. It returns true when the value
// passes; otherwise the returned ValidationError describes the failure.
// Remote rules call their checker on the calling goroutine.
func (r Rule) Evaluate(ctx context.Context, field string, value any, siblings Siblings) (ValidationError, bool) {
	if siblings == nil {
		siblings = MapSiblings(nil)
	}

	var ok bool
	switch r.Kind {
	case KindRequired:
		ok = !IsEmpty(value)
	case KindMinLength:
		ok = checkLength(value, func(n int) bool { return float64(n) >= r.Limit })
	case KindMaxLength:
		ok = checkLength(value, func(n int) bool { return float64(n) <= r.Limit })
	case KindNumeric:
		ok = checkNumeric(value)
	case KindMinValue:
		ok = checkBound(value, func(f float64) bool { return f >= r.Limit })
	case KindMaxValue:
		ok = checkBound(value, func(f float64) bool { return f <= r.Limit })
	case KindEqualsOneOf:
		ok = checkEqualsOneOf(value, r.Ref, r.Values, siblings)
	case KindOneOf:
		ok = value == nil || containsValue(r.Values, value)
	case KindNoneOf:
		ok = !containsValue(r.Values, value)
	case KindRemote:
		return r.evaluateRemote(ctx, field, value)
	default:
		return r.failure(field, KindInvalidRuleFailure, fmt.Sprintf("unknown rule kind %q", r.Kind)), false
	}

	if ok {
		return ValidationError{}, true
	}
	return r.failure(field, r.Kind, r.message()), false
}

// KindInvalidRuleFailure marks a failure produced by a malformed descriptor.
const KindInvalidRuleFailure Kind = "invalid_rule"

func (r Rule) failure(field string, kind Kind, msg string) ValidationError {
	values := map[string]any{"field": field}
	switch r.Kind {
	case KindMinLength, KindMaxLength, KindMinValue, KindMaxValue:
		values["limit"] = r.Limit
	case KindEqualsOneOf:
		values["ref"] = r.Ref
	case KindOneOf, KindNoneOf:
		values["values"] = r.Values
	}
	return ValidationError{
		Field:             field,
		Rule:              r.Key(),
		Kind:              kind,
		Message:           msg,
		TranslationKey:    "validation." + string(kind),
		TranslationValues: values,
	}
}

func (r Rule) message() string {
	if r.Message != "" {
		return r.Message
	}
	return defaultMessage(r)
}

func defaultMessage(r Rule) string {
	switch r.Kind {
	case KindRequired:
		return "field is required"
	case KindMinLength:
		return fmt.Sprintf("must be at least %s characters long", formatNumber(r.Limit))
	case KindMaxLength:
		return fmt.Sprintf("must be at most %s characters long", formatNumber(r.Limit))
	case KindNumeric:
		return "must be a number"
	case KindMinValue:
		return fmt.Sprintf("must be at least %s", formatNumber(r.Limit))
	case KindMaxValue:
		return fmt.Sprintf("must be at most %s", formatNumber(r.Limit))
	case KindEqualsOneOf:
		return fmt.Sprintf("must match %s", r.Ref)
	case KindOneOf:
		return fmt.Sprintf("must be one of: %v", r.Values)
	case KindNoneOf:
		return fmt.Sprintf("must not be one of: %v", r.Values)
	case KindRemote:
		return "value was rejected"
	}
	return "invalid value"
}
