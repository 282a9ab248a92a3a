// Package validator provides the rule descriptors evaluated by the form
// engine together with translation-friendly error types.
//
// A Rule is plain data: a Kind tag plus parameters (a length or value limit,
// a reference path, a list of literals, or a RemoteChecker). Keeping rules as
// data rather than closures means schemas can be declared in YAML, inspected
// for dependencies and tested without any UI binding.
//
// # Built-in rules
//
//   - Required          – nil, "" and empty collections fail
//   - MinLength/MaxLength – code point length after NFC normalization
//   - IsNumeric         – numbers and numeric strings
//   - MinValue/MaxValue – numeric bounds, non-numeric input is left to IsNumeric
//   - EqualsOneOf       – cross-field equality read live through Siblings
//   - OneOf/NoneOf      – allow and deny lists
//   - Remote            – asynchronous yes/no check through a RemoteChecker
//
// # Usage
//
//	rule := validator.MinLength(5).WithMessage("password is too short")
//	if verr, ok := rule.Evaluate(ctx, "password", "abc", nil); !ok {
//	    fmt.Println(verr.Rule, verr.Message) // min_length password is too short
//	}
//
// # Error Handling
//
// Failures are returned as ValidationError values, never as Go errors.
// ValidationErrors implements error for callers that want to bubble a whole
// field up. A remote checker that fails to answer produces a failure of kind
// KindTransport carrying the TransportError text; a panicking checker is
// recovered and reported the same way.
package validator
