package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ninlil/pkg/archive"
)

// Status is the lifecycle state of an archive job
type Status string

const (
	StatusBuilding Status = "building"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

var (
	// ErrInProgress is returned by Begin while a job with the same key is building
	ErrInProgress = errors.New("an archive job for this request is already in progress")
	// ErrNotFound is returned for unknown job IDs
	ErrNotFound = errors.New("job not found")
	// ErrFinished is returned when completing or failing a job twice
	ErrFinished = errors.New("job already finished")
)

// Job is a snapshot of one archive job
type Job struct {
	ID        string                 `json:"id"`
	Key       string                 `json:"-"`
	Status    Status                 `json:"status"`
	Path      string                 `json:"-"`
	Entries   int                    `json:"entries"`
	Skipped   []archive.SkippedPhoto `json:"skipped,omitempty"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Registry tracks archive jobs in memory and refuses to start a second job
// for a key while the first is still building. Keys are chosen by the caller,
// typically session ID plus blog plus date range.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	active map[string]string
	// retain is how long finished jobs stay queryable
	retain time.Duration
	now    func() time.Time
}

// NewRegistry creates a registry keeping finished jobs for retain (forever when zero)
func NewRegistry(retain time.Duration) *Registry {
	return &Registry{
		jobs:   make(map[string]*Job),
		active: make(map[string]string),
		retain: retain,
		now:    time.Now,
	}
}

// Begin registers a building job for key
func (r *Registry) Begin(key string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	if id, ok := r.active[key]; ok {
		return *r.jobs[id], ErrInProgress
	}

	now := r.now()
	job := &Job{
		ID:        uuid.NewString(),
		Key:       key,
		Status:    StatusBuilding,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job
	r.active[key] = job.ID
	return *job, nil
}

// Complete marks a job ready with the archive it produced
func (r *Registry) Complete(id string, result *archive.Result) (Job, error) {
	return r.finish(id, func(job *Job) {
		job.Status = StatusReady
		if result != nil {
			job.Path = result.Path
			job.Entries = result.Entries
			job.Skipped = result.Skipped
		}
	})
}

// Fail marks a job failed
func (r *Registry) Fail(id string, err error) (Job, error) {
	return r.finish(id, func(job *Job) {
		job.Status = StatusFailed
		if err != nil {
			job.Error = err.Error()
		}
	})
}

// Get returns a snapshot of the job with the given ID
func (r *Registry) Get(id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Active returns the building job registered under key, if any
func (r *Registry) Active(key string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[key]
	if !ok {
		return Job{}, false
	}
	return *r.jobs[id], true
}

// Len returns the number of tracked jobs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *Registry) finish(id string, update func(*Job)) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Status != StatusBuilding {
		return *job, ErrFinished
	}

	update(job)
	job.UpdatedAt = r.now()
	delete(r.active, job.Key)
	return *job, nil
}

// sweep drops finished jobs past their retention. Caller holds mu.
func (r *Registry) sweep() {
	if r.retain <= 0 {
		return
	}
	cutoff := r.now().Add(-r.retain)
	for id, job := range r.jobs {
		if job.Status != StatusBuilding && job.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
