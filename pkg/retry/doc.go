// Package retry provides exponential backoff and retry logic for transient
// failures against the Tumblr API and photo hosts.
//
// Only network failures, 429s and 5xx responses are retried. Auth rejections,
// API-level errors and cancelled contexts return immediately.
//
//	cfg := retry.FromSettings(appConfig.Retry, logger.GetLogger())
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return fetch(ctx, url)
//	}, cfg)
package retry
