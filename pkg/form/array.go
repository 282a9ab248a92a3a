package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/formkit/pkg/logger"
)

// FieldArray manages the elements of one array field. Elements are
// identified by ItemID; their paths are recomputed after every mutation, so
// values and errors always follow the element they belong to.
type FieldArray struct {
	e      *Engine
	path   string
	schema *FieldSchema
}

// Array returns the manager of the array field at path.
func (e *Engine) Array(path string) (*FieldArray, error) {
	fs, ok := e.schema.field(path)
	if !ok || !fs.IsArray() {
		return nil, errors.Join(ErrNotArray, fmt.Errorf("path %q", path))
	}
	return &FieldArray{e: e, path: path, schema: fs}, nil
}

// Path returns the array field path.
func (a *FieldArray) Path() string { return a.path }

// Append adds an element at the end and returns its ID. A nil defaults uses
// the item defaults declared on the schema. The new element starts valid.
func (a *FieldArray) Append(ctx context.Context, defaults map[string]any) (ItemID, error) {
	if a.e.closed.Load() {
		return "", ErrClosed
	}
	if defaults == nil {
		defaults = a.schema.ItemDefaults
	}
	id, err := a.e.state.AppendItem(a.path, defaults)
	if err != nil {
		return "", err
	}
	a.e.logger.DebugContext(ctx, "array item appended",
		logger.Path(a.path),
		logger.ItemID(id),
	)
	a.e.publish(EventArrayChanged, a.path)
	return id, nil
}

// Remove deletes the element with its values and errors. Pending
// validations of the element are discarded when they resolve.
func (a *FieldArray) Remove(ctx context.Context, id ItemID) error {
	if a.e.closed.Load() {
		return ErrClosed
	}
	a.e.mu.Lock()
	err := a.e.state.RemoveItem(a.path, id)
	if err == nil {
		a.e.forgetItem(a.path, id)
	}
	a.e.mu.Unlock()
	if err != nil {
		return err
	}

	a.e.logger.DebugContext(ctx, "array item removed",
		logger.Path(a.path),
		logger.ItemID(id),
	)
	a.e.publish(EventArrayChanged, a.path)
	return nil
}

// RemoveAt deletes the element at index and returns its ID.
func (a *FieldArray) RemoveAt(ctx context.Context, index int) (ItemID, error) {
	if a.e.closed.Load() {
		return "", ErrClosed
	}
	a.e.mu.Lock()
	id, err := a.e.state.RemoveItemAt(a.path, index)
	if err == nil {
		a.e.forgetItem(a.path, id)
	}
	a.e.mu.Unlock()
	if err != nil {
		return "", err
	}

	a.e.logger.DebugContext(ctx, "array item removed",
		logger.Path(a.path),
		logger.ItemID(id),
	)
	a.e.publish(EventArrayChanged, a.path)
	return id, nil
}

// List returns the elements in order with their current paths.
func (a *FieldArray) List() []ItemRef {
	items, _ := a.e.state.Items(a.path)
	return items
}

// Len returns the number of elements.
func (a *FieldArray) Len() int {
	return len(a.List())
}

// forgetItem drops the sequence stamps of a removed item. Callers hold e.mu.
func (e *Engine) forgetItem(array string, id ItemID) {
	for ref := range e.seq {
		if ref.array == array && ref.item == id {
			delete(e.seq, ref)
		}
	}
}
