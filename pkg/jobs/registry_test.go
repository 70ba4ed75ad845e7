package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninlil/pkg/archive"
)

func TestBeginRejectsDuplicateWhileBuilding(t *testing.T) {
	r := NewRegistry(0)

	job, err := r.Begin("session|staff|[2023-01-01, 2024-01-01)")
	require.NoError(t, err)
	assert.Equal(t, StatusBuilding, job.Status)
	_, parseErr := uuid.Parse(job.ID)
	assert.NoError(t, parseErr)

	active, ok := r.Active("session|staff|[2023-01-01, 2024-01-01)")
	require.True(t, ok)
	assert.Equal(t, job.ID, active.ID)

	running, err := r.Begin("session|staff|[2023-01-01, 2024-01-01)")
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Equal(t, job.ID, running.ID)

	other, err := r.Begin("session|staff|[2022-01-01, 2023-01-01)")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, other.ID)
}

func TestCompleteReleasesKey(t *testing.T) {
	r := NewRegistry(0)

	job, err := r.Begin("key")
	require.NoError(t, err)

	done, err := r.Complete(job.ID, &archive.Result{
		Path:    "/tmp/ninlil-1/photos.zip",
		Entries: 3,
		Skipped: []archive.SkippedPhoto{{PostID: "7", Index: 1, Reason: "no sizes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, done.Status)
	assert.Equal(t, "/tmp/ninlil-1/photos.zip", done.Path)
	assert.Equal(t, 3, done.Entries)
	assert.Len(t, done.Skipped, 1)

	_, ok := r.Active("key")
	assert.False(t, ok)

	next, err := r.Begin("key")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
}

func TestFailRecordsError(t *testing.T) {
	r := NewRegistry(0)

	job, err := r.Begin("key")
	require.NoError(t, err)

	failed, err := r.Fail(job.ID, errors.New("fetch failed"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "fetch failed", failed.Error)

	got, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	_, err = r.Complete(job.ID, nil)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(0)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Fail("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishedJobsExpire(t *testing.T) {
	r := NewRegistry(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old, err := r.Begin("old")
	require.NoError(t, err)
	_, err = r.Complete(old.ID, nil)
	require.NoError(t, err)

	building, err := r.Begin("building")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = r.Begin("new")
	require.NoError(t, err)

	_, err = r.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(building.ID)
	assert.NoError(t, err, "building jobs never expire")
	assert.Equal(t, 2, r.Len())
}

func TestConcurrentBeginStartsOneJob(t *testing.T) {
	r := NewRegistry(0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Begin("same"); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
}
