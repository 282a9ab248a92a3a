package form

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

// ErrUnknownChecker is returned when a YAML remote rule names a checker
// that was not registered.
var ErrUnknownChecker = errors.New("form: unknown remote checker")

type yamlSchema struct {
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Path         string         `yaml:"path"`
	Policy       Policy         `yaml:"policy"`
	DependsOn    []string       `yaml:"depends_on"`
	Rules        []yamlRule     `yaml:"rules"`
	Array        bool           `yaml:"array"`
	Element      []yamlField    `yaml:"element"`
	ItemDefaults map[string]any `yaml:"item_defaults"`
}

type yamlRule struct {
	Kind    validator.Kind `yaml:"kind"`
	Name    string         `yaml:"name"`
	Message string         `yaml:"message"`
	Limit   float64        `yaml:"limit"`
	Ref     string         `yaml:"ref"`
	Values  []any          `yaml:"values"`
	Checker string         `yaml:"checker"`
}

// LoadSchemaYAML reads a schema declaration. Remote rules reference their
// checker by name in checkers.
//
//	fields:
//	  - path: name
//	    rules:
//	      - kind: required
//	      - kind: remote
//	        checker: name_available
//	  - path: activities
//	    array: true
//	    item_defaults: {level: expert}
//	    element:
//	      - path: level
//	        rules:
//	          - kind: none_of
//	            values: [beginner]
func LoadSchemaYAML(r io.Reader, checkers map[string]validator.RemoteChecker) (*Schema, error) {
	var doc yamlSchema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrMalformedSchema, fmt.Errorf("decode yaml schema: %w", err))
	}
	fields, err := buildYAMLFields(doc.Fields, checkers)
	if err != nil {
		return nil, err
	}
	return NewSchema(fields...)
}

func buildYAMLFields(decl []yamlField, checkers map[string]validator.RemoteChecker) ([]*FieldSchema, error) {
	fields := make([]*FieldSchema, 0, len(decl))
	for _, f := range decl {
		if f.Array || len(f.Element) > 0 {
			elemFields, err := buildYAMLFields(f.Element, checkers)
			if err != nil {
				return nil, err
			}
			var elem *Schema
			if len(f.Element) > 0 {
				elem = Element(elemFields...)
			}
			fs := Array(f.Path, elem, f.ItemDefaults)
			fs.Policy = f.Policy
			for _, r := range f.Rules {
				rule, err := buildYAMLRule(f.Path, r, checkers)
				if err != nil {
					return nil, err
				}
				fs.Rules = append(fs.Rules, rule)
			}
			fields = append(fields, fs)
			continue
		}

		fs := Field(f.Path).WithPolicy(f.Policy).DependsOn(f.DependsOn...)
		for _, r := range f.Rules {
			rule, err := buildYAMLRule(f.Path, r, checkers)
			if err != nil {
				return nil, err
			}
			fs.Rules = append(fs.Rules, rule)
		}
		fields = append(fields, fs)
	}
	return fields, nil
}

func buildYAMLRule(path string, r yamlRule, checkers map[string]validator.RemoteChecker) (validator.Rule, error) {
	rule := validator.Rule{
		Name:    r.Name,
		Kind:    r.Kind,
		Message: r.Message,
		Limit:   r.Limit,
		Ref:     r.Ref,
		Values:  r.Values,
	}
	if r.Kind == validator.KindRemote {
		checker, ok := checkers[r.Checker]
		if !ok {
			return validator.Rule{}, errors.Join(ErrMalformedSchema, ErrUnknownChecker,
				fmt.Errorf("field %q: checker %q", path, r.Checker))
		}
		rule.Checker = checker
	}
	return rule, nil
}
