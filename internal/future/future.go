// Package future implements a minimal composable asynchronous result type:
// resolved, rejected, map, then, and an all-join over a slice. Go has no
// built-in future/promise primitive, so this is a thin adapter in the style
// of the goroutine-plus-channel concurrency used throughout this module (see
// internal/pool) rather than any particular third-party async library.
package future

import (
	"fmt"

	"github.com/fetchplan/fetchplan/internal/pool"
)

// Future is a composable, single-assignment asynchronous result.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Resolved returns a Future that is already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Rejected returns a Future that is already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Go schedules fn on exec and returns a Future for its eventual result. A
// panic inside fn is recovered and turned into the Future's error, the same
// way the runner treats a misbehaving continuation as a failure rather than
// a crash (see fetch.ErrBindFailed).
func Go[T any](exec pool.Executor, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	submitErr := exec.Execute(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("future: panic in scheduled task: %v", r)
			}
		}()
		f.val, f.err = fn()
	})
	if submitErr != nil {
		f.err = fmt.Errorf("future: executor rejected task: %w", submitErr)
		close(f.done)
	}
	return f
}

// Spawn runs fn on its own goroutine, bypassing any Executor, and returns a
// Future for its eventual result. Use this instead of Go for work started
// from inside a task that is itself running on a bounded Executor: routing
// nested work back through that same executor can deadlock if every worker
// is occupied by an outer task waiting on the nested one.
func Spawn[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("future: panic in scheduled task: %v", r)
			}
		}()
		f.val, f.err = fn()
	}()
	return f
}

// Wait blocks until f settles and returns its value or error.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Map returns a Future that resolves to fn(v) once f resolves to v, or
// propagates f's error unchanged.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(out.done)
		v, err := f.Wait()
		if err != nil {
			out.err = err
			return
		}
		defer func() {
			if r := recover(); r != nil {
				out.err = fmt.Errorf("future: panic in map: %v", r)
			}
		}()
		out.val = fn(v)
	}()
	return out
}

// Then returns a Future that resolves by feeding f's value into fn, waiting
// on the Future fn returns, and propagating whichever error comes first.
func Then[T, U any](f *Future[T], fn func(T) (*Future[U], error)) *Future[U] {
	out := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(out.done)
		v, err := f.Wait()
		if err != nil {
			out.err = err
			return
		}
		next, err := func() (next *Future[U], err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("future: panic in then: %v", r)
				}
			}()
			return fn(v)
		}()
		if err != nil {
			out.err = err
			return
		}
		out.val, out.err = next.Wait()
	}()
	return out
}

// All joins a slice of already-scheduled futures, preserving order. It
// waits for every future to settle — since they run concurrently already,
// joining costs no more than the slowest one — and returns the first error
// encountered in slice order. The values of futures after the first error
// are discarded, matching the runner's "other in-flight fetches may
// complete, their results are discarded" contract.
func All[T any](futures []*Future[T]) *Future[[]T] {
	out := &Future[[]T]{done: make(chan struct{})}
	go func() {
		defer close(out.done)
		vals := make([]T, len(futures))
		var firstErr error
		for i, f := range futures {
			v, err := f.Wait()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			vals[i] = v
		}
		if firstErr != nil {
			out.err = firstErr
			return
		}
		out.val = vals
	}()
	return out
}
