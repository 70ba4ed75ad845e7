package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ninlil/internal/downloader"
	"ninlil/pkg/config"
	"ninlil/pkg/logger"
	"ninlil/pkg/storage"
	"ninlil/pkg/tumblr"
)

// PostQuerier lists posts of one type on a blog inside a date range
type PostQuerier interface {
	QueryPosts(ctx context.Context, blog, postType string, r tumblr.DateRange) ([]tumblr.Post, error)
}

// SkippedPhoto records a photo left out of an archive and why
type SkippedPhoto struct {
	PostID string `json:"post_id"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result describes a finished archive
type Result struct {
	Path    string         `json:"path"`
	Prefix  string         `json:"prefix"`
	Posts   int            `json:"posts"`
	Entries int            `json:"entries"`
	Skipped []SkippedPhoto `json:"skipped,omitempty"`
}

// Complete reports whether every photo of every matching post was archived
func (r *Result) Complete() bool {
	return len(r.Skipped) == 0
}

// Pipeline turns a blog and date range into a zip of its photos. It holds no
// per-job state, so one Pipeline can serve concurrent jobs.
type Pipeline struct {
	posts    PostQuerier
	pool     *downloader.Pool
	workBase string
	logger   logger.Logger
	now      func() time.Time
}

// NewPipeline wires a post source and a photo fetcher into a pipeline
func NewPipeline(posts PostQuerier, fetcher downloader.PhotoFetcher, cfg *config.Config, log logger.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		posts:    posts,
		pool:     downloader.NewPool(cfg.Download.ConcurrentDownloads, fetcher, log),
		workBase: cfg.Output.WorkDirectory,
		logger:   log,
		now:      time.Now,
	}
}

// SetClock replaces the clock used to name archives with an unbounded end
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// entry is one photo scheduled for the archive
type entry struct {
	postID   string
	name     string
	modified time.Time
}

// SavePhotos archives every photo of the blog's photo posts inside r.
//
// The archive is written to {workdir}/{prefix}.zip inside a fresh work
// directory and its absolute path returned once it is closed. Photos without
// any size are skipped and listed in the result. Any query, fetch or write
// failure aborts the job, removes the work directory and returns no result.
func (p *Pipeline) SavePhotos(ctx context.Context, blog string, r tumblr.DateRange) (*Result, error) {
	log := p.logger.WithFields(map[string]interface{}{
		"blog":       blog,
		"date_range": r.String(),
	})

	workDir, err := storage.NewWorkDir(p.workBase)
	if err != nil {
		return nil, err
	}
	succeeded := false
	defer func() {
		if !succeeded {
			if err := storage.Cleanup(workDir); err != nil {
				log.WithError(err).Warn("failed to remove work directory")
			}
		}
	}()

	prefix := Prefix(ContentTypePhotos, r, p.now())
	result := &Result{Prefix: prefix}

	posts, err := p.posts.QueryPosts(ctx, blog, tumblr.PostTypePhoto, r)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	result.Posts = len(posts)

	var entries []entry
	var jobs []downloader.Job
	for _, post := range posts {
		postID := post.Identifier()
		for i, photo := range post.Photos {
			photoURL, err := tumblr.ChooseURL(photo)
			if err != nil {
				result.Skipped = append(result.Skipped, SkippedPhoto{PostID: postID, Index: i, Reason: err.Error()})
				logger.LogArchiveEntry(log, blog, postID, "", 0, err)
				continue
			}
			jobs = append(jobs, downloader.Job{Index: len(entries), URL: photoURL})
			entries = append(entries, entry{
				postID:   postID,
				name:     EntryName(prefix, postID, photoURL),
				modified: post.Time(),
			})
		}
	}

	w, err := Create(filepath.Join(workDir, prefix+".zip"))
	if err != nil {
		return nil, err
	}

	log.InfoWithFields("archiving photos", map[string]interface{}{
		"posts":   len(posts),
		"photos":  len(jobs),
		"skipped": len(result.Skipped),
		"workers": p.pool.Workers(),
	})

	err = p.pool.Run(ctx, jobs, func(res downloader.Result) error {
		e := entries[res.Job.Index]
		if err := w.WriteEntry(e.name, res.Data, e.modified); err != nil {
			return err
		}
		logger.LogArchiveEntry(log, blog, e.postID, e.name, len(res.Data), nil)
		return nil
	})
	if err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("archive aborted: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	result.Path = w.Path()
	result.Entries = w.Entries()
	succeeded = true

	log.InfoWithFields("archive complete", map[string]interface{}{
		"path":    result.Path,
		"entries": result.Entries,
		"skipped": len(result.Skipped),
	})
	return result, nil
}
