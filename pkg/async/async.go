package async

import (
	"context"
	"errors"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// Await waits for the asynchronous function to complete and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes first.
// The computation itself keeps running when ctx ends first.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, errors.Join(ErrAwaitAborted, ctx.Err())
	}
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on completion.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Async executes fn in its own goroutine and returns a Future for its result.
// A panic inside fn completes the Future with ErrPanicked instead of crashing
// the process.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if p := recover(); p != nil {
				f.once.Do(func() {
					f.err = &PanicError{Value: p}
				})
			}
		}()

		// Early exit prevents running work for an already cancelled caller
		select {
		case <-ctx.Done():
			f.once.Do(func() { f.err = ctx.Err() })
			return
		default:
		}

		res, err := fn(ctx, param)
		f.once.Do(func() {
			f.result = res
			f.err = err
		})
	}()

	return f
}

// Resolved returns an already completed Future.
func Resolved[U any](v U, err error) *Future[U] {
	f := &Future[U]{done: make(chan struct{}), result: v, err: err}
	close(f.done)
	return f
}

// WaitAll waits for every future and returns their results in order.
// Unlike returning on the first failure, all futures are awaited and every
// error is joined, so no computation is left running unobserved.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var errs []error

	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}
