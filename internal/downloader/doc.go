// Package downloader fetches photo bytes for archive jobs: Fetcher performs a
// single rate-limited, retried, time-bounded GET and Pool fans fetches out
// while handing results to one consumer goroutine.
package downloader
