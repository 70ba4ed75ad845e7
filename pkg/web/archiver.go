package web

import (
	"context"
	"net/http"

	"ninlil/internal/downloader"
	"ninlil/pkg/archive"
	"ninlil/pkg/config"
	"ninlil/pkg/logger"
	"ninlil/pkg/ratelimit"
	"ninlil/pkg/tumblr"
)

// Archiver builds a photo archive for a blog and date range
type Archiver interface {
	SavePhotos(ctx context.Context, blog string, r tumblr.DateRange) (*archive.Result, error)
}

// ArchiverFactory returns an Archiver that queries the API through signed,
// a client carrying the requesting user's credentials
type ArchiverFactory func(signed *http.Client) Archiver

// NewArchiverFactory wires the Tumblr client and photo pipeline for each
// authorized request. Photo downloads share one unsigned fetcher, and API
// pages and photo fetches draw from one request budget.
func NewArchiverFactory(cfg *config.Config, log logger.Logger) ArchiverFactory {
	limiter := ratelimit.FromSettings(cfg.RateLimit)
	fetcher := downloader.NewFetcher(&http.Client{}, cfg, log)
	fetcher.SetLimiter(limiter)
	return func(signed *http.Client) Archiver {
		client := tumblr.NewClient(signed, cfg, log)
		client.SetLimiter(limiter)
		return archive.NewPipeline(client, fetcher, cfg, log)
	}
}
