// Package ratelimit keeps ninlil under Tumblr's request quotas.
//
// TokenBucket wraps golang.org/x/time/rate. One limiter is shared by the API
// client and the photo fetchers, so pagination and downloads draw from the
// same budget.
//
//	limiter := ratelimit.FromSettings(cfg.RateLimit)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
