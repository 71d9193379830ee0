package views

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// View is a screen that fetches its state on mount.
type View interface {
	Load(ctx context.Context) error
	Unmount()
}

// Navigator changes the current route.
type Navigator interface {
	Push(route string)
	Replace(route string)
}

// ===== Lifecycle =====

// lifecycle is embedded by every view. Once unmounted, late results are dropped.
type lifecycle struct {
	mu        sync.Mutex
	unmounted bool
	pending   int
	onChange  func()
	log       *zap.SugaredLogger
}

func (l *lifecycle) init(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	l.log = log
}

// Unmount stops applying results. Requests already sent are not aborted.
func (l *lifecycle) Unmount() {
	l.mu.Lock()
	l.unmounted = true
	l.mu.Unlock()
}

func (l *lifecycle) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.unmounted
}

// OnChange registers the re-render hook, called after every applied result.
func (l *lifecycle) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Pending reports whether a mutation is in flight.
func (l *lifecycle) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending > 0
}

func (l *lifecycle) changed() {
	l.mu.Lock()
	fn, live := l.onChange, !l.unmounted
	l.mu.Unlock()
	if fn != nil && live {
		fn()
	}
}

// mutate runs Mutate with the pending flag raised.
func (l *lifecycle) mutate(ctx context.Context, op string, mutation func(context.Context) error, refetch ...Refresher) error {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
	l.changed()

	err := Mutate(ctx, mutation, refetch...)

	l.mu.Lock()
	l.pending--
	l.mu.Unlock()
	if err != nil {
		l.log.Debugw("mutation failed", "op", op, "error", err)
	}
	l.changed()
	return err
}

// ===== Resource =====

// Mode decides what a failed Refresh leaves behind.
type Mode int

const (
	// BestEffort falls back to the zero value and hides the error.
	BestEffort Mode = iota
	// Strict keeps the previous value and records the error for display.
	Strict
)

// Resource is one server-owned value held by a view.
type Resource[T any] struct {
	name  string
	mode  Mode
	fetch func(context.Context) (T, error)
	owner *lifecycle

	mu      sync.Mutex
	value   T
	loaded  bool
	pending bool
	err     error
}

// NewResource creates a standalone resource.
func NewResource[T any](name string, mode Mode, fetch func(context.Context) (T, error)) *Resource[T] {
	return &Resource[T]{name: name, mode: mode, fetch: fetch}
}

func newResource[T any](owner *lifecycle, name string, mode Mode, fetch func(context.Context) (T, error)) *Resource[T] {
	r := NewResource(name, mode, fetch)
	r.owner = owner
	return r
}

func (r *Resource[T]) live() bool {
	return r.owner == nil || r.owner.Mounted()
}

func (r *Resource[T]) logger() *zap.SugaredLogger {
	if r.owner != nil && r.owner.log != nil {
		return r.owner.log
	}
	return zap.NewNop().Sugar()
}

func (r *Resource[T]) notify() {
	if r.owner != nil {
		r.owner.changed()
	}
}

// Refresh fetches and replaces the value. Only Strict resources return an error.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()

	v, err := r.fetch(ctx)

	r.mu.Lock()
	r.pending = false
	if !r.live() {
		r.mu.Unlock()
		return nil
	}
	switch {
	case err == nil:
		r.value, r.loaded, r.err = v, true, nil
	case r.mode == Strict:
		r.err = err
	default:
		var zero T
		r.value, r.loaded, r.err = zero, true, nil
	}
	r.mu.Unlock()
	r.notify()

	if err != nil {
		r.logger().Debugw("fetch failed", "resource", r.name, "error", err)
		if r.mode == Strict {
			return err
		}
	}
	return nil
}

// Reload fetches after a mutation. A failure keeps the stale value.
func (r *Resource[T]) Reload(ctx context.Context) error {
	v, err := r.fetch(ctx)
	if !r.live() {
		return nil
	}
	if err != nil {
		r.logger().Debugw("refetch failed, keeping stale value", "resource", r.name, "error", err)
		return err
	}
	r.mu.Lock()
	r.value, r.loaded, r.err = v, true, nil
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Resource[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Err returns the last Strict fetch error.
func (r *Resource[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Resource[T]) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *Resource[T]) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Update applies a local edit that has no server round trip.
func (r *Resource[T]) Update(fn func(T) T) {
	if !r.live() {
		return
	}
	r.mu.Lock()
	r.value = fn(r.value)
	r.mu.Unlock()
	r.notify()
}

// ===== Mutations =====

// Refresher is anything Mutate can refetch.
type Refresher interface {
	Reload(ctx context.Context) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Reload(ctx context.Context) error { return f(ctx) }

// Mutate runs mutation and, only if it succeeds, reloads each refetch in order.
// Reload failures leave stale values and are not returned.
func Mutate(ctx context.Context, mutation func(context.Context) error, refetch ...Refresher) error {
	if err := mutation(ctx); err != nil {
		return err
	}
	for _, r := range refetch {
		if r == nil {
			continue
		}
		_ = r.Reload(ctx)
	}
	return nil
}
