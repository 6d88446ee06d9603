// Package future provides a single-assignment asynchronous result.
//
// A Future starts pending and completes exactly once, either with a value
// or with a fault. The cache layers only ever look at the completion state
// through the type-erased Handle interface; callers that know the value type
// await the typed *Future[T] directly.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Status is the completion state of a future.
type Status int32

const (
	// Pending means the producer has not finished yet.
	Pending Status = iota

	// Succeeded means the future holds a value.
	Succeeded

	// Faulted means the producer returned an error (or panicked).
	Faulted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

var (
	// ErrProducerPanic wraps the recovered value of a panicking producer.
	ErrProducerPanic = errors.New("future: producer panicked")

	// ErrNilFault is used when a future is failed with a nil error.
	ErrNilFault = errors.New("future: faulted without error")
)

// Handle is the type-erased view of a future.
type Handle interface {
	// Status reports the completion state without blocking.
	Status() Status

	// Done is closed once the future has completed.
	Done() <-chan struct{}

	// Err returns the fault of a faulted future and nil otherwise.
	Err() error
}

// Future is a single-assignment result of type T.
type Future[T any] struct {
	once   sync.Once
	done   chan struct{}
	status atomic.Int32

	// value and err are written once, before status leaves Pending.
	value T
	err   error
}

// New returns a pending future that is completed with Resolve or Fail.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go starts fn on its own goroutine and returns a future for its result.
// A panic inside fn faults the future instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Fail(fmt.Errorf("%w: %v", ErrProducerPanic, r))
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			f.Fail(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Completed returns a future that already holds v.
func Completed[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Failed returns a future that is already faulted with err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Fail(err)
	return f
}

// Resolve completes the future with v. It reports false if the future was
// already complete.
func (f *Future[T]) Resolve(v T) bool {
	return f.complete(v, nil)
}

// Fail completes the future with err. It reports false if the future was
// already complete.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFault
	}
	var zero T
	return f.complete(zero, err)
}

func (f *Future[T]) complete(v T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		if err != nil {
			f.status.Store(int32(Faulted))
		} else {
			f.status.Store(int32(Succeeded))
		}
		close(f.done)
		completed = true
	})
	return completed
}

// Status reports the completion state without blocking.
func (f *Future[T]) Status() Status {
	return Status(f.status.Load())
}

// Done is closed once the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Err returns the fault of a faulted future and nil otherwise.
func (f *Future[T]) Err() error {
	if f.Status() != Faulted {
		return nil
	}
	return f.err
}

// Wait blocks until the future completes or ctx is done. Cancelling ctx
// only abandons the wait; the producer keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
