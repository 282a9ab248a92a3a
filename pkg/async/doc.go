// Package async provides small generic helpers for running computations in
// their own goroutine and collecting the result later.
//
// The form engine uses it to run remote validation rules off the caller's
// path and to fan out submit-time validation across fields.
//
// # Usage
//
//	future := async.Async(ctx, "ab", func(ctx context.Context, name string) (bool, error) {
//	    return checker.Check(ctx, name)
//	})
//
//	// do other work …
//	ok, err := future.Await()
//
// # Error Handling
//
// Await returns whatever the callback returned. A cancelled context before
// start completes the Future with ctx.Err(). Panics are recovered into a
// *PanicError matching ErrPanicked. WaitAll awaits every future and joins all
// errors with errors.Join.
package async
