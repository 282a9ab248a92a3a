package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/formkit/pkg/async"
	"github.com/dmitrymomot/formkit/pkg/broadcast"
	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

// TriggerKind names the event that caused a validation run.
type TriggerKind string

const (
	TriggerChange TriggerKind = "change"
	TriggerBlur   TriggerKind = "blur"
	TriggerSubmit TriggerKind = "submit"
	TriggerManual TriggerKind = "manual"
)

// Engine runs a Schema against a State. Triggers may be called from any
// goroutine. Asynchronous rules run in the background and their results
// are applied only if no later trigger targeted the same field meanwhile.
type Engine struct {
	schema *Schema
	state  *State
	cfg    Config
	logger *slog.Logger

	events     broadcast.Broadcaster[Event]
	ownsEvents bool

	// mu guards seq and the closed transition. It is always taken before
	// the state lock.
	mu      sync.Mutex
	seq     map[fieldRef]uint64
	counter uint64

	pending    sync.WaitGroup
	inflight   atomic.Int64
	submitting atomic.Bool
	closed     atomic.Bool
}

// New creates an engine for schema with state initialised from defaults.
func New(schema *Schema, defaults map[string]any, opts ...Option) (*Engine, error) {
	if schema == nil {
		return nil, errors.Join(ErrMalformedSchema, errors.New("nil schema"))
	}

	e := &Engine{
		schema: schema,
		cfg:    DefaultConfig(),
		logger: logger.Discard(),
		seq:    make(map[fieldRef]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.events == nil {
		e.events = broadcast.NewMemoryBroadcaster[Event](e.cfg.EventBuffer)
		e.ownsEvents = true
	}
	e.logger = e.logger.With(logger.Component("form"))
	e.state = NewState(defaults, schema.Arrays()...)
	return e, nil
}

// Schema returns the compiled schema.
func (e *Engine) Schema() *Schema { return e.schema }

// State returns the state the engine writes to. Renderers read it directly.
func (e *Engine) State() *State { return e.state }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Change stores value at path and validates the field together with every
// field depending on it.
func (e *Engine) Change(ctx context.Context, path string, value any) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := e.checkWritable(path); err != nil {
		return err
	}
	ref, _, err := e.state.assign(path, value)
	if err != nil {
		return err
	}
	e.publish(EventValueChanged, path)

	if !e.validatesOn(TriggerChange) {
		return nil
	}
	for _, target := range e.changeTargets(ref) {
		e.validate(ctx, TriggerChange, target)
	}
	return nil
}

// Blur marks path as touched and re-validates it.
func (e *Engine) Blur(ctx context.Context, path string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := e.checkWritable(path); err != nil {
		return err
	}
	ref, err := e.state.resolveRef(path)
	if err != nil {
		return err
	}
	if err := e.state.SetTouched(path); err != nil {
		return err
	}
	e.publish(EventTouched, path)

	if e.validatesOn(TriggerBlur) {
		e.validate(ctx, TriggerBlur, ref)
	}
	return nil
}

// Trigger validates the given paths, or the whole form when none are
// given, waits for asynchronous rules and reports whether they all passed.
func (e *Engine) Trigger(ctx context.Context, paths ...string) (bool, error) {
	if e.closed.Load() {
		return false, ErrClosed
	}
	var targets []fieldRef
	if len(paths) == 0 {
		targets = e.allTargets()
	}
	for _, path := range paths {
		if e.schema.IsArray(path) {
			targets = append(targets, e.arrayTargets(path)...)
			continue
		}
		ref, err := e.state.resolveRef(path)
		if err != nil {
			return false, err
		}
		targets = append(targets, ref)
	}
	return e.validateAll(ctx, TriggerManual, targets)
}

// Reset restores the defaults (or replaces them when defaults is not nil)
// and forgets every outstanding validation.
func (e *Engine) Reset(defaults map[string]any) {
	e.mu.Lock()
	e.state.Reset(defaults)
	clear(e.seq)
	e.mu.Unlock()
	e.publish(EventReset, "")
}

// View returns a renderer-friendly copy of the state.
func (e *Engine) View() View {
	v := e.state.View()
	v.Submitting = e.submitting.Load()
	v.Validating = e.inflight.Load() > 0
	return v
}

// Wait blocks until every outstanding asynchronous validation has resolved.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Close rejects further triggers, waits for outstanding validations and
// closes the event broadcaster when the engine created it.
func (e *Engine) Close() error {
	e.mu.Lock()
	swapped := e.closed.CompareAndSwap(false, true)
	e.mu.Unlock()
	if !swapped {
		return nil
	}
	e.pending.Wait()
	if e.ownsEvents {
		return e.events.Close()
	}
	return nil
}

func (e *Engine) validatesOn(trigger TriggerKind) bool {
	if e.state.SubmitCount() > 0 {
		return true
	}
	switch trigger {
	case TriggerChange:
		return e.cfg.Mode == ModeOnChange
	case TriggerBlur:
		return e.cfg.Mode == ModeOnChange || e.cfg.Mode == ModeOnBlur
	}
	return true
}

// checkWritable accepts paths declared by the schema and paths already
// holding a value, such as keys of the defaults.
func (e *Engine) checkWritable(path string) error {
	ref, err := e.state.resolveRef(path)
	if err != nil {
		return err
	}
	if _, ok := e.state.readRef(ref); ok {
		return nil
	}
	if ref.isElement() {
		if arr, ok := e.schema.field(ref.array); ok && arr.Element != nil {
			if _, ok := arr.Element.field(ref.field); ok {
				return nil
			}
		}
	} else if fs, ok := e.schema.field(ref.field); ok && !fs.IsArray() {
		return nil
	}
	return errors.Join(ErrUnknownPath, fmt.Errorf("path %q is not declared", path))
}

// fieldSchema returns the rules of ref, or nil when the path has none.
func (e *Engine) fieldSchema(ref fieldRef) *FieldSchema {
	if !ref.isElement() {
		fs, ok := e.schema.field(ref.field)
		if !ok || fs.IsArray() {
			return nil
		}
		return fs
	}
	arr, ok := e.schema.field(ref.array)
	if !ok || arr.Element == nil {
		return nil
	}
	fs, _ := arr.Element.field(ref.field)
	return fs
}

// changeTargets returns ref followed by every field depending on it.
func (e *Engine) changeTargets(ref fieldRef) []fieldRef {
	targets := []fieldRef{ref}
	if ref.isElement() {
		if arr, ok := e.schema.field(ref.array); ok && arr.Element != nil {
			for _, dep := range arr.Element.deps[ref.field] {
				targets = append(targets, fieldRef{array: ref.array, item: ref.item, field: dep})
			}
		}
		return targets
	}

	for _, dep := range e.schema.deps[ref.field] {
		targets = append(targets, fieldRef{field: dep})
	}
	for _, dep := range e.schema.elementDeps[ref.field] {
		items, err := e.state.Items(dep.array)
		if err != nil {
			continue
		}
		for _, it := range items {
			targets = append(targets, fieldRef{array: dep.array, item: it.ID, field: dep.field})
		}
	}
	return targets
}

// allTargets lists every scalar field and every element field in
// declaration order.
func (e *Engine) allTargets() []fieldRef {
	var targets []fieldRef
	for _, path := range e.schema.order {
		if e.schema.fields[path].IsArray() {
			targets = append(targets, e.arrayTargets(path)...)
			continue
		}
		targets = append(targets, fieldRef{field: path})
	}
	return targets
}

func (e *Engine) arrayTargets(array string) []fieldRef {
	fs, ok := e.schema.field(array)
	if !ok || fs.Element == nil {
		return nil
	}
	items, err := e.state.Items(array)
	if err != nil {
		return nil
	}
	var targets []fieldRef
	for _, it := range items {
		for _, field := range fs.Element.order {
			targets = append(targets, fieldRef{array: array, item: it.ID, field: field})
		}
	}
	return targets
}

// siblings gives rules live access to the form. Element rules see the
// fields of their own item first.
func (e *Engine) siblings(ref fieldRef) validator.Siblings {
	if !ref.isElement() {
		return validator.SiblingsFunc(e.state.Value)
	}
	return validator.SiblingsFunc(func(path string) (any, bool) {
		if v, ok := e.state.readRef(fieldRef{array: ref.array, item: ref.item, field: path}); ok {
			return v, true
		}
		return e.state.Value(path)
	})
}

// validate evaluates ref and writes the result back. The returned future
// resolves to whether the value passed every rule.
func (e *Engine) validate(ctx context.Context, trigger TriggerKind, ref fieldRef) *async.Future[bool] {
	fs := e.fieldSchema(ref)
	if fs == nil {
		path, _ := e.state.refPath(ref)
		e.logger.DebugContext(ctx, "no rules for field",
			logger.Path(path),
			logger.Trigger(string(trigger)),
			logger.Error(ErrSchemaLookup),
		)
		return async.Resolved(true, nil)
	}

	e.mu.Lock()
	e.counter++
	seq := e.counter
	e.seq[ref] = seq
	value, _ := e.state.readRef(ref)
	path, ok := e.state.refPath(ref)
	e.mu.Unlock()
	if !ok {
		return async.Resolved(true, nil)
	}

	siblings := e.siblings(ref)
	errs, next := fs.evaluate(ctx, 0, true, path, value, siblings, e.cfg.Policy, nil)
	e.apply(ctx, trigger, ref, seq, errs)
	if next < 0 {
		return async.Resolved(len(errs) == 0, nil)
	}

	// Close flips closed under e.mu, so no Add can follow its Wait.
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return async.Resolved(len(errs) == 0, nil)
	}
	e.pending.Add(1)
	e.mu.Unlock()
	e.inflight.Add(1)
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.RemoteTimeout)
	future := async.Async(actx, errs, func(ctx context.Context, interim validator.ValidationErrors) (bool, error) {
		full, _ := fs.evaluate(ctx, next, false, path, value, siblings, e.cfg.Policy, interim)
		e.apply(ctx, trigger, ref, seq, full)
		return len(full) == 0, nil
	})
	go func() {
		<-future.Done()
		cancel()
		e.inflight.Add(-1)
		e.pending.Done()
	}()
	return future
}

// apply writes errs for ref unless a later trigger stamped the field.
func (e *Engine) apply(ctx context.Context, trigger TriggerKind, ref fieldRef, seq uint64, errs validator.ValidationErrors) bool {
	e.mu.Lock()
	latest := e.seq[ref]
	if latest != seq {
		e.mu.Unlock()
		path, _ := e.state.refPath(ref)
		e.logger.DebugContext(ctx, "stale validation result discarded",
			logger.Path(path),
			logger.Trigger(string(trigger)),
			logger.Seq(seq),
			slog.Uint64("latest_seq", latest),
		)
		return false
	}
	written := e.state.setRefErrors(ref, errs)
	path, _ := e.state.refPath(ref)
	e.mu.Unlock()

	if written {
		e.publish(EventErrorsChanged, path)
	}
	return written
}

// validateAll validates targets concurrently and waits for every result.
func (e *Engine) validateAll(ctx context.Context, trigger TriggerKind, targets []fieldRef) (bool, error) {
	futures := make([]*async.Future[bool], 0, len(targets))
	for _, ref := range targets {
		futures = append(futures, e.validate(ctx, trigger, ref))
	}
	results, err := async.WaitAll(futures...)
	if err != nil {
		return false, fmt.Errorf("validate form: %w", err)
	}
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
