package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single failed rule on a single field.
type ValidationError struct {
	Field             string         `json:"field"`
	Rule              string         `json:"rule"`
	Kind              Kind           `json:"kind"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"translation_key,omitempty"`
	TranslationValues map[string]any `json:"translation_values,omitempty"`
}

// ValidationErrors represents a collection of validation errors.
// A field with an empty collection is valid.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	var parts []string
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve *ValidationErrors) Add(err ValidationError) {
	*ve = append(*ve, err)
}

func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

// HasRule reports whether field failed the rule with the given name.
func (ve ValidationErrors) HasRule(field, rule string) bool {
	for _, err := range ve {
		if err.Field == field && err.Rule == rule {
			return true
		}
	}
	return false
}

func (ve ValidationErrors) Get(field string) []string {
	var messages []string
	for _, err := range ve {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

func (ve ValidationErrors) GetErrors(field string) []ValidationError {
	var errs []ValidationError
	for _, err := range ve {
		if err.Field == field {
			errs = append(errs, err)
		}
	}
	return errs
}

// ByRule groups the messages of field by rule name.
// When a rule failed more than once the first message wins.
func (ve ValidationErrors) ByRule(field string) map[string]string {
	out := make(map[string]string)
	for _, err := range ve {
		if err.Field != field {
			continue
		}
		if _, ok := out[err.Rule]; !ok {
			out[err.Rule] = err.Message
		}
	}
	return out
}

func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// WithField returns a copy of ve with every entry re-addressed to field.
func (ve ValidationErrors) WithField(field string) ValidationErrors {
	if ve == nil {
		return nil
	}
	out := make(ValidationErrors, len(ve))
	for i, err := range ve {
		err.Field = field
		out[i] = err
	}
	return out
}

// Clone returns a deep copy of ve.
func (ve ValidationErrors) Clone() ValidationErrors {
	if ve == nil {
		return nil
	}
	out := make(ValidationErrors, len(ve))
	for i, err := range ve {
		if err.TranslationValues != nil {
			vals := make(map[string]any, len(err.TranslationValues))
			for k, v := range err.TranslationValues {
				vals[k] = v
			}
			err.TranslationValues = vals
		}
		out[i] = err
	}
	return out
}

// ExtractValidationErrors extracts ValidationErrors from an error.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	var validationErr ValidationErrors
	return errors.As(err, &validationErr)
}
