// Package signup declares the signup form: its schema, shipped as an
// embedded YAML document, and its default values.
//
//	schema, err := signup.Schema(remotecheck.NewHTTP(cfg.LuckyNameURL))
//	engine, err := form.New(schema, signup.Defaults())
package signup

import (
	"bytes"
	_ "embed"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

// Name tags stored submissions.
const Name = "signup"

// CheckerName is the checker key the schema's remote rule refers to.
const CheckerName = "lucky_name"

// Gender options.
const (
	GenderMan   = "man"
	GenderWoman = "woman"
)

// Sign options; the empty string means "not told".
var Signs = []string{"", "fish", "aquarius"}

// Activity levels. Beginners are rejected by the schema.
var Levels = []string{"beginner", "intermediate", "expert"}

//go:embed signup.yaml
var schemaYAML []byte

// Schema compiles the signup schema. lucky answers whether a name is
// acceptable.
func Schema(lucky validator.RemoteChecker) (*form.Schema, error) {
	return form.LoadSchemaYAML(bytes.NewReader(schemaYAML), map[string]validator.RemoteChecker{
		CheckerName: lucky,
	})
}

// Defaults returns a fresh copy of the initial values.
func Defaults() map[string]any {
	return map[string]any{
		"name":            "",
		"gender":          GenderMan,
		"age":             "",
		"password":        "",
		"confirmPassword": "",
		"other": map[string]any{
			"sign":  "",
			"happy": false,
		},
		"activities": []any{},
	}
}

// New returns an engine for the signup form.
func New(lucky validator.RemoteChecker, opts ...form.Option) (*form.Engine, error) {
	schema, err := Schema(lucky)
	if err != nil {
		return nil, err
	}
	return form.New(schema, Defaults(), opts...)
}

// SecretFields lists the fields persisting sinks must not store in clear.
func SecretFields() []string { return []string{"password"} }

// TransientFields lists the fields that are dropped before persisting.
func TransientFields() []string { return []string{"confirmPassword"} }
