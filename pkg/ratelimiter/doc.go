// Package ratelimiter implements a token bucket limiter with an in-memory
// store and an HTTP middleware keyed by an arbitrary request attribute.
//
// The form server uses it to cap how fast a single client can open new
// form sessions:
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//	limiter, err := ratelimiter.NewBucket(store, cfg)
//	mw := ratelimiter.Middleware(limiter, clientip.Key())
//
// Every refill interval the bucket receives RefillRate tokens up to
// Capacity. A request asking for more tokens than remain is rejected with
// 429 Too Many Requests and a Retry-After header.
package ratelimiter
