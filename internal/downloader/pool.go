package downloader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ninlil/pkg/logger"
)

// PhotoFetcher retrieves the bytes behind a URL
type PhotoFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Job is one photo to fetch. Index is the caller's position for the photo
// and is carried through to the result untouched.
type Job struct {
	Index int
	URL   string
}

// Result is a fetched photo
type Result struct {
	Job      Job
	Data     []byte
	Duration time.Duration
}

// Pool fetches photos concurrently and funnels results to a single consumer
type Pool struct {
	workers int
	fetcher PhotoFetcher
	logger  logger.Logger
}

// NewPool creates a pool running at most workers fetches at a time
func NewPool(workers int, fetcher PhotoFetcher, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{workers: workers, fetcher: fetcher, logger: log}
}

// Workers returns the fetch concurrency
func (p *Pool) Workers() int {
	return p.workers
}

// Run fetches every job and calls sink once per result. sink is only ever
// called from one goroutine, so it may own non-thread-safe state such as a
// zip writer. Results arrive in completion order. The first fetch or sink
// error cancels outstanding fetches and is returned; once that happens sink
// is not called again.
func (p *Pool) Run(ctx context.Context, jobs []Job, sink func(Result) error) error {
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan Result)

	g.Go(func() error {
		defer close(results)

		fetchers, fctx := errgroup.WithContext(gctx)
		fetchers.SetLimit(p.workers)

		for _, job := range jobs {
			if fctx.Err() != nil {
				break
			}
			job := job
			fetchers.Go(func() error {
				if err := fctx.Err(); err != nil {
					return err
				}

				start := time.Now()
				data, err := p.fetcher.Fetch(fctx, job.URL)
				if err != nil {
					p.logger.WithError(err).WarnWithFields("photo fetch failed", map[string]interface{}{
						"url":   job.URL,
						"index": job.Index,
					})
					return fmt.Errorf("failed to fetch %s: %w", job.URL, err)
				}

				select {
				case results <- Result{Job: job, Data: data, Duration: time.Since(start)}:
					return nil
				case <-fctx.Done():
					return fctx.Err()
				}
			})
		}
		return fetchers.Wait()
	})

	g.Go(func() error {
		for result := range results {
			if gctx.Err() != nil {
				continue
			}
			if err := sink(result); err != nil {
				return err
			}
		}
		return gctx.Err()
	})

	return g.Wait()
}
