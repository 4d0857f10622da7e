// Package readiness models the one-shot initialization of an external capability.
package readiness

import (
	"context"
	"sync"
)

// Future resolves at most once, either with a value or with an error.
// Resolving an already-resolved Future is a no-op.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	mu    sync.RWMutex
	value T
	err   error
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve reports whether this call was the one that resolved the Future.
func (f *Future[T]) Resolve(value T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.mu.Lock()
		f.value = value
		f.err = err
		f.mu.Unlock()
		close(f.done)
		resolved = true
	})
	return resolved
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Ready is true once the Future resolved without an error.
func (f *Future[T]) Ready() bool {
	if !f.Resolved() {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err == nil
}

// Peek returns the outcome without blocking; resolved is false until Resolve ran.
func (f *Future[T]) Peek() (value T, resolved bool, err error) {
	if !f.Resolved() {
		return value, false, nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, true, f.err
}

func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.RLock()
		defer f.mu.RUnlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Loader starts an asynchronous initializer at most once and exposes its Future.
type Loader[T any] struct {
	started sync.Once
	future  *Future[T]
}

func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{future: NewFuture[T]()}
}

// Start runs load in the background on the first call; later calls do nothing.
func (l *Loader[T]) Start(ctx context.Context, load func(context.Context) (T, error)) {
	l.started.Do(func() {
		go func() {
			l.future.Resolve(load(ctx))
		}()
	})
}

func (l *Loader[T]) Future() *Future[T] {
	return l.future
}
