package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/logger"
	"ninlil/pkg/ratelimit"
	"ninlil/pkg/retry"
)

// Fetcher downloads photo bytes from the media CDN
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   ratelimit.Limiter
	retry     *retry.Config
	logger    logger.Logger
}

// NewFetcher creates a fetcher. Each attempt is bounded by the configured
// download timeout; transient failures are retried per the retry settings.
func NewFetcher(client *http.Client, cfg *config.Config, log logger.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		client:    client,
		timeout:   cfg.Download.DownloadTimeout,
		userAgent: cfg.Tumblr.UserAgent,
		limiter:   ratelimit.FromSettings(cfg.RateLimit),
		retry:     retry.FromSettings(cfg.Retry, log),
		logger:    log,
	}
}

// SetLimiter replaces the request limiter
func (f *Fetcher) SetLimiter(l ratelimit.Limiter) {
	f.limiter = l
}

// SetRetry replaces the retry policy
func (f *Fetcher) SetRetry(cfg *retry.Config) {
	f.retry = cfg
}

// Fetch returns the body of url. Connection failures, timeouts and any
// non-2xx status are network errors; error pages are never returned as data.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return f.fetchOnce(ctx, url)
	}, f.retry)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NetworkError(url, 0, fmt.Errorf("invalid photo URL: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, errs.NetworkError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errs.NetworkError(url, resp.StatusCode, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NetworkError(url, 0, err)
	}

	f.logger.DebugWithFields("photo fetched", map[string]interface{}{
		"url":      url,
		"size":     len(data),
		"duration": time.Since(start),
	})
	return data, nil
}
