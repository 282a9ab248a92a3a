package form

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

// ItemID identifies one element of an array field for the lifetime of the
// session, independent of its current index.
type ItemID string

// NewItemID returns a fresh random ItemID.
func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

// ItemRef is the derived view of one array element: its stable ID and the
// index and path it currently occupies.
type ItemRef struct {
	ID    ItemID `json:"id"`
	Index int    `json:"index"`
	Path  string `json:"path"`
}

type item struct {
	values  map[string]any
	errors  map[string]validator.ValidationErrors
	touched map[string]bool
}

func newItem(values map[string]any) *item {
	if values == nil {
		values = make(map[string]any)
	}
	return &item{
		values:  values,
		errors:  make(map[string]validator.ValidationErrors),
		touched: make(map[string]bool),
	}
}

type fieldArray struct {
	ids   []ItemID
	items map[ItemID]*item
}

func newFieldArray() *fieldArray {
	return &fieldArray{items: make(map[ItemID]*item)}
}

func (a *fieldArray) index(id ItemID) int {
	return slices.Index(a.ids, id)
}

// fieldRef addresses a value by identity: a scalar path, or an item and a
// field relative to the element.
type fieldRef struct {
	array string
	item  ItemID
	field string
}

func (r fieldRef) isElement() bool { return r.array != "" }

// State is the mutable state of one editing session. It is only changed
// through its entry points; every entry point is atomic and safe for
// concurrent use.
type State struct {
	mu sync.RWMutex

	defaults   map[string]any
	arrayNames []string

	values  map[string]any
	errors  map[string]validator.ValidationErrors
	touched map[string]bool
	arrays  map[string]*fieldArray

	dirty       bool
	submitCount int
	global      *GlobalError
}

// NewState creates a state initialised from a nested defaults tree. Paths
// listed in arrays are array fields; their default must be a list of records.
func NewState(defaults map[string]any, arrays ...string) *State {
	s := &State{
		defaults:   copyTree(defaults),
		arrayNames: slices.Clone(arrays),
	}
	s.load(s.defaults)
	return s
}

func (s *State) load(defaults map[string]any) {
	s.values = make(map[string]any)
	s.errors = make(map[string]validator.ValidationErrors)
	s.touched = make(map[string]bool)
	s.arrays = make(map[string]*fieldArray, len(s.arrayNames))
	for _, name := range s.arrayNames {
		s.arrays[name] = newFieldArray()
	}
	s.flatten("", defaults)
	s.dirty = false
	s.global = nil
}

func (s *State) flatten(prefix string, tree map[string]any) {
	for key, v := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if arr, ok := s.arrays[path]; ok {
			for _, rec := range records(v) {
				id := NewItemID()
				arr.ids = append(arr.ids, id)
				arr.items[id] = newItem(rec)
			}
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			s.flatten(path, sub)
			continue
		}
		s.values[path] = copyValue(v)
	}
}

func records(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		out := make([]map[string]any, len(list))
		for i, rec := range list {
			out[i] = flattenRecord(rec)
		}
		return out
	case []any:
		return elementRecords(list)
	}
	return nil
}

// flattenRecord turns a nested record into a map keyed by dotted relative
// paths. Values are copied.
func flattenRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(path, sub)
				continue
			}
			out[path] = copyValue(v)
		}
	}
	walk("", rec)
	return out
}

// resolveRef maps a path to the identity of the value it addresses.
func (s *State) resolveRef(path string) (fieldRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveRefLocked(path)
}

func (s *State) resolveRefLocked(path string) (fieldRef, error) {
	if _, ok := s.arrays[path]; ok {
		return fieldRef{}, errors.Join(ErrArrayPath, fmt.Errorf("path %q", path))
	}
	name, idx, field, ok := SplitElementPath(path)
	if !ok {
		if strings.ContainsAny(path, "[]") || path == "" {
			return fieldRef{}, errors.Join(ErrUnknownPath, fmt.Errorf("path %q", path))
		}
		return fieldRef{field: path}, nil
	}
	arr, ok := s.arrays[name]
	if !ok {
		return fieldRef{}, errors.Join(ErrNotArray, fmt.Errorf("path %q", path))
	}
	if idx >= len(arr.ids) {
		return fieldRef{}, errors.Join(ErrUnknownPath, fmt.Errorf("path %q: index out of range", path))
	}
	return fieldRef{array: name, item: arr.ids[idx], field: field}, nil
}

func (s *State) itemLocked(ref fieldRef) (*item, bool) {
	arr, ok := s.arrays[ref.array]
	if !ok {
		return nil, false
	}
	it, ok := arr.items[ref.item]
	return it, ok
}

func (s *State) readRef(ref fieldRef) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRefLocked(ref)
}

func (s *State) readRefLocked(ref fieldRef) (any, bool) {
	if !ref.isElement() {
		v, ok := s.values[ref.field]
		return copyValue(v), ok
	}
	it, ok := s.itemLocked(ref)
	if !ok {
		return nil, false
	}
	v, ok := it.values[ref.field]
	return copyValue(v), ok
}

// refPath returns the path ref currently occupies. ok is false when the
// item was removed.
func (s *State) refPath(ref fieldRef) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refPathLocked(ref)
}

func (s *State) refPathLocked(ref fieldRef) (string, bool) {
	if !ref.isElement() {
		return ref.field, true
	}
	arr, ok := s.arrays[ref.array]
	if !ok {
		return "", false
	}
	idx := arr.index(ref.item)
	if idx < 0 {
		return "", false
	}
	return ElementPath(ref.array, idx, ref.field), true
}

// setRefErrors replaces the errors of ref. It reports false when the item
// no longer exists.
func (s *State) setRefErrors(ref fieldRef, errs validator.ValidationErrors) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRefErrorsLocked(ref, errs)
}

func (s *State) setRefErrorsLocked(ref fieldRef, errs validator.ValidationErrors) bool {
	target := s.errors
	if ref.isElement() {
		it, ok := s.itemLocked(ref)
		if !ok {
			return false
		}
		target = it.errors
	}
	if len(errs) == 0 {
		delete(target, ref.field)
		return true
	}
	target[ref.field] = errs.Clone()
	return true
}

// SetValue stores value at path and marks the form dirty when it changed.
// Whole array fields cannot be assigned; use the array entry points.
func (s *State) SetValue(path string, value any) error {
	_, _, err := s.assign(path, value)
	return err
}

// assign stores value and returns the identity it was written to and
// whether the value changed.
func (s *State) assign(path string, value any) (fieldRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return fieldRef{}, false, err
	}
	target := s.values
	if ref.isElement() {
		it, _ := s.itemLocked(ref)
		target = it.values
	}
	old, existed := target[ref.field]
	if !existed && s.overlapsLocked(target, ref) {
		return fieldRef{}, false, errors.Join(ErrUnknownPath, fmt.Errorf("path %q overlaps an existing value", path))
	}
	changed := !existed || !validator.Equal(old, value)
	if changed {
		s.dirty = true
	}
	target[ref.field] = copyValue(value)
	return ref, changed, nil
}

// overlapsLocked reports whether ref.field is a parent or a child of a
// path already stored in target. Both cannot coexist in a snapshot.
func (s *State) overlapsLocked(target map[string]any, ref fieldRef) bool {
	field := ref.field
	for key := range target {
		if strings.HasPrefix(key, field+".") || strings.HasPrefix(field, key+".") {
			return true
		}
	}
	if !ref.isElement() {
		for _, name := range s.arrayNames {
			if strings.HasPrefix(name, field+".") || strings.HasPrefix(field, name+".") {
				return true
			}
		}
	}
	return false
}

// Value returns a copy of the value at path.
func (s *State) Value(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return nil, false
	}
	return s.readRefLocked(ref)
}

// SetTouched marks path as touched.
func (s *State) SetTouched(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return err
	}
	if ref.isElement() {
		it, _ := s.itemLocked(ref)
		it.touched[ref.field] = true
		return nil
	}
	s.touched[ref.field] = true
	return nil
}

// IsTouched reports whether path was touched.
func (s *State) IsTouched(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return false
	}
	if ref.isElement() {
		it, _ := s.itemLocked(ref)
		return it.touched[ref.field]
	}
	return s.touched[ref.field]
}

// SetErrors replaces the errors of path wholesale. An empty errs marks the
// field valid.
func (s *State) SetErrors(path string, errs validator.ValidationErrors) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return err
	}
	s.setRefErrorsLocked(ref, errs.WithField(path))
	return nil
}

// FieldErrors returns the errors of path, addressed by its current path.
func (s *State) FieldErrors(path string) validator.ValidationErrors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, err := s.resolveRefLocked(path)
	if err != nil {
		return nil
	}
	if !ref.isElement() {
		return s.errors[ref.field].Clone()
	}
	it, _ := s.itemLocked(ref)
	return it.errors[ref.field].WithField(path).Clone()
}

// Errors returns every non-empty error set keyed by current path. Element
// errors follow their item, so they are reported at its present index.
func (s *State) Errors() map[string]validator.ValidationErrors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorsLocked()
}

func (s *State) errorsLocked() map[string]validator.ValidationErrors {
	out := make(map[string]validator.ValidationErrors, len(s.errors))
	for path, errs := range s.errors {
		out[path] = errs.Clone()
	}
	for name, arr := range s.arrays {
		for idx, id := range arr.ids {
			for field, errs := range arr.items[id].errors {
				path := ElementPath(name, idx, field)
				out[path] = errs.WithField(path).Clone()
			}
		}
	}
	return out
}

// AllErrors returns every error of the form flattened in path order.
func (s *State) AllErrors() validator.ValidationErrors {
	byPath := s.Errors()
	paths := slices.Sorted(maps.Keys(byPath))
	var out validator.ValidationErrors
	for _, p := range paths {
		out = append(out, byPath[p]...)
	}
	return out
}

// HasErrors reports whether any field currently carries errors.
func (s *State) HasErrors() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.errors) > 0 {
		return true
	}
	for _, arr := range s.arrays {
		for _, it := range arr.items {
			if len(it.errors) > 0 {
				return true
			}
		}
	}
	return false
}

// ClearErrors drops every field error and the global error.
func (s *State) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.errors)
	for _, arr := range s.arrays {
		for _, it := range arr.items {
			clear(it.errors)
		}
	}
	s.global = nil
}

// SetGlobalError sets the non-field error slot.
func (s *State) SetGlobalError(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = &GlobalError{Kind: kind, Message: message}
}

// ClearGlobalError empties the non-field error slot.
func (s *State) ClearGlobalError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = nil
}

// GlobalError returns a copy of the non-field error, or nil.
func (s *State) GlobalError() *GlobalError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.global == nil {
		return nil
	}
	g := *s.global
	return &g
}

// Reset restores the state from defaults. A nil defaults restores the
// defaults the state was created with; otherwise defaults replace them.
// Errors, touched flags, the global error and the submit counter are
// cleared, and array items get new IDs.
func (s *State) Reset(defaults map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if defaults != nil {
		s.defaults = copyTree(defaults)
	}
	s.load(s.defaults)
	s.submitCount = 0
}

// Defaults returns a copy of the current defaults tree.
func (s *State) Defaults() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTree(s.defaults)
}

// IncrementSubmitCount advances the submit counter and returns its new value.
func (s *State) IncrementSubmitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitCount++
	return s.submitCount
}

// SubmitCount returns the number of submit attempts since the last reset.
func (s *State) SubmitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitCount
}

// Dirty reports whether a value changed since the last reset.
func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Values returns every value keyed by its current flat path.
func (s *State) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valuesLocked()
}

func (s *State) valuesLocked() map[string]any {
	out := make(map[string]any, len(s.values))
	for path, v := range s.values {
		out[path] = copyValue(v)
	}
	for name, arr := range s.arrays {
		for idx, id := range arr.ids {
			for field, v := range arr.items[id].values {
				out[ElementPath(name, idx, field)] = copyValue(v)
			}
		}
	}
	return out
}

// Snapshot rebuilds the nested value tree, with array fields as lists of
// records in their current order.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	for path, v := range s.values {
		setNested(out, path, copyValue(v))
	}
	for _, name := range s.arrayNames {
		arr := s.arrays[name]
		list := make([]any, 0, len(arr.ids))
		for _, id := range arr.ids {
			it := arr.items[id]
			if v, ok := it.values[""]; ok && len(it.values) == 1 {
				list = append(list, copyValue(v))
				continue
			}
			rec := make(map[string]any, len(it.values))
			for field, v := range it.values {
				setNested(rec, field, copyValue(v))
			}
			list = append(list, rec)
		}
		setNested(out, name, list)
	}
	return out
}

// AppendItem adds an element at the end of array and returns its new ID.
// The element starts untouched and valid.
func (s *State) AppendItem(array string, values map[string]any) (ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr, ok := s.arrays[array]
	if !ok {
		return "", errors.Join(ErrNotArray, fmt.Errorf("path %q", array))
	}
	id := NewItemID()
	arr.ids = append(arr.ids, id)
	arr.items[id] = newItem(flattenRecord(values))
	s.dirty = true
	return id, nil
}

// RemoveItem deletes an element with its values, errors and touched flags.
// Later elements shift down by one index.
func (s *State) RemoveItem(array string, id ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr, ok := s.arrays[array]
	if !ok {
		return errors.Join(ErrNotArray, fmt.Errorf("path %q", array))
	}
	idx := arr.index(id)
	if idx < 0 {
		return errors.Join(ErrUnknownItem, fmt.Errorf("array %q item %q", array, id))
	}
	arr.ids = slices.Delete(arr.ids, idx, idx+1)
	delete(arr.items, id)
	s.dirty = true
	return nil
}

// RemoveItemAt deletes the element at index and returns its ID.
func (s *State) RemoveItemAt(array string, index int) (ItemID, error) {
	s.mu.RLock()
	arr, ok := s.arrays[array]
	var id ItemID
	if ok && index >= 0 && index < len(arr.ids) {
		id = arr.ids[index]
	}
	s.mu.RUnlock()

	if !ok {
		return "", errors.Join(ErrNotArray, fmt.Errorf("path %q", array))
	}
	if id == "" {
		return "", errors.Join(ErrUnknownPath, fmt.Errorf("array %q index %d out of range", array, index))
	}
	return id, s.RemoveItem(array, id)
}

// Items lists the elements of array in order with their current paths.
func (s *State) Items(array string) ([]ItemRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr, ok := s.arrays[array]
	if !ok {
		return nil, errors.Join(ErrNotArray, fmt.Errorf("path %q", array))
	}
	return itemRefs(array, arr), nil
}

func itemRefs(name string, arr *fieldArray) []ItemRef {
	out := make([]ItemRef, len(arr.ids))
	for idx, id := range arr.ids {
		out[idx] = ItemRef{ID: id, Index: idx, Path: ElementPath(name, idx, "")}
	}
	return out
}

// ItemIndex returns the current index of id in array.
func (s *State) ItemIndex(array string, id ItemID) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.arrays[array]
	if !ok {
		return 0, false
	}
	idx := arr.index(id)
	return idx, idx >= 0
}

// itemFields returns the relative field names holding values in item id.
func (s *State) itemFields(array string, id ItemID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.arrays[array]
	if !ok {
		return nil
	}
	it, ok := arr.items[id]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(it.values))
}

// View is a consistent copy of the state for renderers.
type View struct {
	Values      map[string]any                        `json:"values"`
	Errors      map[string]validator.ValidationErrors `json:"errors"`
	Touched     []string                              `json:"touched"`
	Arrays      map[string][]ItemRef                  `json:"arrays"`
	Dirty       bool                                  `json:"dirty"`
	SubmitCount int                                   `json:"submitCount"`
	GlobalError *GlobalError                          `json:"globalError,omitempty"`
	Submitting  bool                                  `json:"submitting"`
	Validating  bool                                  `json:"validating"`
}

// View returns a copy of the whole state taken under one lock.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Values:      s.valuesLocked(),
		Errors:      s.errorsLocked(),
		Arrays:      make(map[string][]ItemRef, len(s.arrays)),
		Dirty:       s.dirty,
		SubmitCount: s.submitCount,
	}
	for path, ok := range s.touched {
		if ok {
			v.Touched = append(v.Touched, path)
		}
	}
	for name, arr := range s.arrays {
		v.Arrays[name] = itemRefs(name, arr)
		for idx, id := range arr.ids {
			for field, ok := range arr.items[id].touched {
				if ok {
					v.Touched = append(v.Touched, ElementPath(name, idx, field))
				}
			}
		}
	}
	sort.Strings(v.Touched)
	if s.global != nil {
		g := *s.global
		v.GlobalError = &g
	}
	return v
}

func setNested(tree map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = v
}

func copyTree(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyTree(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyTree(e)
		}
		return out
	}
	return v
}
