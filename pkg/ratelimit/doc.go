// Package ratelimit throttles outbound file downloads.
//
// TokenBucket admits a fixed number of requests per refill period; Wait
// blocks until a token is free or the context ends. PerMinute builds the
// limiter from the rate_limit.requests_per_minute setting, with zero
// meaning unlimited.
//
//	limiter := ratelimit.PerMinute(60)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
