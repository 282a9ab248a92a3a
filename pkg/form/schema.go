package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

// Policy controls how many rules of a field run after a failure.
type Policy string

const (
	// CollectAll runs every rule and reports each failure under its rule name.
	CollectAll Policy = "collect_all"
	// FirstFailure stops at the first failing rule.
	FirstFailure Policy = "first_failure"
)

func (p Policy) valid() bool {
	return p == "" || p == CollectAll || p == FirstFailure
}

// FieldSchema declares the rules of one field. Array fields carry an element
// schema instead of rules of their own.
type FieldSchema struct {
	Path         string
	Policy       Policy
	Rules        []validator.Rule
	Element      *Schema
	ItemDefaults map[string]any

	dependsOn []string
	array     bool
}

// Field declares a scalar field validated by rules in order.
func Field(path string, rules ...validator.Rule) *FieldSchema {
	return &FieldSchema{Path: path, Rules: rules}
}

// Array declares a repeatable sub-record list. itemDefaults are used by
// Append when the caller passes no defaults.
func Array(path string, element *Schema, itemDefaults map[string]any) *FieldSchema {
	return &FieldSchema{Path: path, Element: element, ItemDefaults: itemDefaults, array: true}
}

// WithPolicy sets the policy of the field, overriding the engine default.
func (fs *FieldSchema) WithPolicy(p Policy) *FieldSchema {
	fs.Policy = p
	return fs
}

// DependsOn declares that the field must be re-validated whenever one of
// paths changes. EqualsOneOf rules declare their reference automatically.
func (fs *FieldSchema) DependsOn(paths ...string) *FieldSchema {
	fs.dependsOn = append(fs.dependsOn, paths...)
	return fs
}

// IsArray reports whether the field is a repeatable sub-record list.
func (fs *FieldSchema) IsArray() bool {
	return fs.array || fs.Element != nil
}

// HasAsync reports whether any rule may suspend on external I/O.
func (fs *FieldSchema) HasAsync() bool {
	for _, r := range fs.Rules {
		if r.IsAsync() {
			return true
		}
	}
	return false
}

// EffectivePolicy resolves the policy the field runs with given the engine
// default.
func (fs *FieldSchema) EffectivePolicy(fallback Policy) Policy {
	if fs.Policy != "" {
		return fs.Policy
	}
	if fallback != "" {
		return fallback
	}
	return CollectAll
}

// Validate runs every rule of the field against value, remote rules
// included, and returns the failures. An empty result means valid.
//
// For array fields value is the list of elements ([]any of map[string]any);
// each element is validated independently against the element schema and
// failures are addressed by element path.
func (fs *FieldSchema) Validate(ctx context.Context, field string, value any, siblings validator.Siblings, policy Policy) validator.ValidationErrors {
	if fs.IsArray() {
		return fs.validateElements(ctx, field, value, siblings, policy)
	}
	errs, _ := fs.evaluate(ctx, 0, false, field, value, siblings, policy, nil)
	return errs
}

// evaluate runs rules starting at from. With stopAtAsync it returns at the
// first asynchronous rule and reports its index; otherwise next is -1.
func (fs *FieldSchema) evaluate(
	ctx context.Context,
	from int,
	stopAtAsync bool,
	field string,
	value any,
	siblings validator.Siblings,
	policy Policy,
	acc validator.ValidationErrors,
) (errs validator.ValidationErrors, next int) {
	policy = fs.EffectivePolicy(policy)
	for i := from; i < len(fs.Rules); i++ {
		rule := fs.Rules[i]
		if stopAtAsync && rule.IsAsync() {
			return acc, i
		}
		if verr, ok := rule.Evaluate(ctx, field, value, siblings); !ok {
			acc = append(acc, verr)
			if policy == FirstFailure {
				return acc, -1
			}
		}
	}
	return acc, -1
}

func (fs *FieldSchema) validateElements(ctx context.Context, field string, value any, siblings validator.Siblings, policy Policy) validator.ValidationErrors {
	items := elementRecords(value)
	var out validator.ValidationErrors
	for i, item := range items {
		local := elementSiblings(item, siblings)
		for _, name := range fs.Element.order {
			elem := fs.Element.fields[name]
			path := ElementPath(field, i, name)
			out = append(out, elem.Validate(ctx, path, item[name], local, policy)...)
		}
	}
	return out
}

func elementRecords(value any) []map[string]any {
	switch v := value.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, it := range v {
			if m, ok := it.(map[string]any); ok {
				out = append(out, flattenRecord(m))
			} else {
				out = append(out, map[string]any{"": it})
			}
		}
		return out
	}
	return nil
}

// elementSiblings resolves names inside the element first and falls back to
// the enclosing form.
func elementSiblings(item map[string]any, outer validator.Siblings) validator.Siblings {
	return validator.SiblingsFunc(func(path string) (any, bool) {
		if v, ok := item[path]; ok {
			return v, true
		}
		if outer != nil {
			return outer.Lookup(path)
		}
		return nil, false
	})
}

type arrayDep struct {
	array string
	field string
}

// Schema maps field paths to FieldSchema and records dependency edges.
type Schema struct {
	fields map[string]*FieldSchema
	order  []string

	// deps maps a source path to the fields re-validated when it changes.
	deps map[string][]string
	// elementDeps maps a form-level path to element fields depending on it.
	elementDeps map[string][]arrayDep
	// external lists references this schema could not resolve itself.
	external map[string][]string
	// err keeps an element compile failure until the enclosing schema reports it.
	err error
}

// NewSchema compiles a schema. It fails with ErrMalformedSchema on duplicate
// or invalid paths, invalid rules, unknown dependencies and arrays nested in
// element schemas.
func NewSchema(fields ...*FieldSchema) (*Schema, error) {
	s, err := compileSchema(fields)
	if err != nil {
		return nil, err
	}
	for target, sources := range s.external {
		return nil, errors.Join(ErrMalformedSchema,
			fmt.Errorf("field %q depends on unknown field %q", target, sources[0]))
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...*FieldSchema) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Element compiles an element schema for Array. References it cannot resolve
// are resolved against the enclosing schema when that one is compiled.
func Element(fields ...*FieldSchema) *Schema {
	s, err := compileSchema(fields)
	if err != nil {
		return &Schema{err: err}
	}
	return s
}

func compileSchema(fields []*FieldSchema) (*Schema, error) {
	s := &Schema{
		fields:      make(map[string]*FieldSchema, len(fields)),
		deps:        make(map[string][]string),
		elementDeps: make(map[string][]arrayDep),
		external:    make(map[string][]string),
	}

	for _, fs := range fields {
		if fs == nil {
			return nil, errors.Join(ErrMalformedSchema, errors.New("nil field schema"))
		}
		if err := validateFieldPath(fs.Path); err != nil {
			return nil, errors.Join(ErrMalformedSchema, err)
		}
		if _, dup := s.fields[fs.Path]; dup {
			return nil, errors.Join(ErrMalformedSchema, fmt.Errorf("duplicate field %q", fs.Path))
		}
		if !fs.Policy.valid() {
			return nil, errors.Join(ErrMalformedSchema, fmt.Errorf("field %q: unknown policy %q", fs.Path, fs.Policy))
		}
		for _, rule := range fs.Rules {
			if err := rule.Validate(); err != nil {
				return nil, errors.Join(ErrMalformedSchema, fmt.Errorf("field %q", fs.Path), err)
			}
		}
		s.fields[fs.Path] = fs
		s.order = append(s.order, fs.Path)
	}

	for _, path := range s.order {
		fs := s.fields[path]
		if fs.IsArray() {
			if err := s.linkArray(fs); err != nil {
				return nil, err
			}
			continue
		}
		for _, source := range fieldSources(fs) {
			if strings.ContainsAny(source, "[]") {
				return nil, errors.Join(ErrMalformedSchema,
					fmt.Errorf("field %q references indexed path %q", path, source))
			}
			if source == path {
				continue
			}
			if _, ok := s.fields[source]; ok {
				s.deps[source] = appendUnique(s.deps[source], path)
				continue
			}
			s.external[path] = append(s.external[path], source)
		}
	}
	return s, nil
}

func (s *Schema) linkArray(fs *FieldSchema) error {
	elem := fs.Element
	if elem == nil {
		return errors.Join(ErrMalformedSchema, fmt.Errorf("array %q has no element schema", fs.Path))
	}
	if elem.err != nil {
		return errors.Join(fmt.Errorf("array %q element", fs.Path), elem.err)
	}
	if len(fs.Rules) > 0 {
		return errors.Join(ErrMalformedSchema, fmt.Errorf("array %q: rules belong to the element schema", fs.Path))
	}
	for _, name := range elem.order {
		if elem.fields[name].IsArray() {
			return errors.Join(ErrMalformedSchema, fmt.Errorf("array %q: nested array %q is not supported", fs.Path, name))
		}
	}
	for field, sources := range elem.external {
		for _, source := range sources {
			target, ok := s.fields[source]
			if !ok || target.IsArray() {
				return errors.Join(ErrMalformedSchema,
					fmt.Errorf("array %q: field %q depends on unknown field %q", fs.Path, field, source))
			}
			s.elementDeps[source] = append(s.elementDeps[source], arrayDep{array: fs.Path, field: field})
		}
	}
	return nil
}

func fieldSources(fs *FieldSchema) []string {
	var sources []string
	for _, rule := range fs.Rules {
		if rule.Kind == validator.KindEqualsOneOf {
			sources = appendUnique(sources, rule.Ref)
		}
	}
	for _, dep := range fs.dependsOn {
		sources = appendUnique(sources, dep)
	}
	return sources
}

// Resolve returns the schema of path. Element paths such as
// "activities[3].level" resolve through the array's element schema.
// Unknown paths return ErrSchemaLookup.
func (s *Schema) Resolve(path string) (*FieldSchema, error) {
	if fs, ok := s.fields[path]; ok {
		return fs, nil
	}
	if array, _, field, ok := SplitElementPath(path); ok {
		if fs, ok := s.fields[array]; ok && fs.IsArray() {
			if elem, ok := fs.Element.fields[field]; ok {
				return elem, nil
			}
		}
	}
	return nil, errors.Join(ErrSchemaLookup, fmt.Errorf("path %q", path))
}

// Fields returns the declared paths in declaration order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.order...)
}

// Dependents returns the fields that must be re-validated when path changes.
// For element schemas the names are relative to the element.
func (s *Schema) Dependents(path string) []string {
	return append([]string(nil), s.deps[path]...)
}

// IsArray reports whether path is a declared array field.
func (s *Schema) IsArray(path string) bool {
	fs, ok := s.fields[path]
	return ok && fs.IsArray()
}

// Arrays returns the declared array paths in declaration order.
func (s *Schema) Arrays() []string {
	var out []string
	for _, p := range s.order {
		if s.fields[p].IsArray() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Schema) field(path string) (*FieldSchema, bool) {
	fs, ok := s.fields[path]
	return fs, ok
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
