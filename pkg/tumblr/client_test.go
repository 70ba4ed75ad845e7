package tumblr

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/logger"
	"ninlil/pkg/tumblr/tumblrtest"
)

func testClient(t *testing.T, srv *tumblrtest.Server, mutate func(*config.Config)) (*Client, *logger.TestLogger) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Tumblr.APIBaseURL = srv.APIBaseURL()
	cfg.RateLimit.RequestsPerMinute = 0
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	log := logger.NewTestLogger()
	return NewClient(srv.Client(), cfg, log), log
}

func ts(date string) int64 {
	return day(date).Unix()
}

// datedPosts returns n posts one day apart, newest first, ending at 2024-01-01
func datedPosts(n int) []tumblrtest.Post {
	posts := make([]tumblrtest.Post, n)
	newest := day("2024-01-01")
	for i := range posts {
		posts[i] = tumblrtest.Post{
			ID:        int64(1000 + n - i),
			Timestamp: newest.AddDate(0, 0, -i).Unix(),
			Photos:    []string{"/media/p.jpg"},
		}
	}
	return posts
}

func identifiers(posts []Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.Identifier()
	}
	return ids
}

func TestQueryPostsFiltersByRangeInOrder(t *testing.T) {
	srv := tumblrtest.NewServer([]tumblrtest.Post{
		{ID: 5, Timestamp: ts("2024-05-01")},
		{ID: 4, Timestamp: ts("2024-04-01")},
		{ID: 3, Timestamp: ts("2024-03-01")},
		{ID: 2, Timestamp: ts("2024-02-01")},
		{ID: 1, Timestamp: ts("2024-01-01")},
	}, nil)
	defer srv.Close()

	client, _ := testClient(t, srv, nil)
	posts, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{
		Start: day("2024-02-01"),
		End:   day("2024-05-01"),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "2"}, identifiers(posts))
}

func TestQueryPostsPaginates(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(45), nil)
	defer srv.Close()

	client, _ := testClient(t, srv, nil)
	posts, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{})

	require.NoError(t, err)
	assert.Len(t, posts, 45)
	assert.Equal(t, []int{0, 20, 40}, srv.PageOffsets())
}

func TestQueryPostsStopsOncePastStart(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(100), nil)
	defer srv.Close()

	client, _ := testClient(t, srv, nil)
	posts, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{
		Start: day("2023-12-20"),
	})

	require.NoError(t, err)
	assert.Len(t, posts, 13)
	assert.Equal(t, 1, srv.PageCalls())
}

func TestQueryPostsPageCapTruncates(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(45), nil)
	defer srv.Close()

	client, log := testClient(t, srv, func(c *config.Config) { c.API.MaxPages = 1 })
	posts, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{})

	require.NoError(t, err)
	assert.Len(t, posts, 20)
	assert.Equal(t, 1, srv.PageCalls())
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestQueryPostsRetriesServerErrors(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(3), nil)
	defer srv.Close()
	srv.FailPages(http.StatusServiceUnavailable)

	client, _ := testClient(t, srv, nil)
	posts, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{})

	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.Equal(t, 2, srv.PageCalls())
}

func TestQueryPostsPropagatesRemoteErrors(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(3), nil)
	defer srv.Close()
	srv.FailPages(http.StatusNotFound)

	client, _ := testClient(t, srv, nil)
	_, err := client.QueryPosts(context.Background(), "missing", PostTypePhoto, DateRange{})

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeRemoteAPI))
	assert.Equal(t, 1, srv.PageCalls())
}

func TestQueryPostsAuthFailure(t *testing.T) {
	srv := tumblrtest.NewServer(nil, nil)
	defer srv.Close()
	srv.FailPages(http.StatusUnauthorized)

	client, _ := testClient(t, srv, nil)
	_, err := client.QueryPosts(context.Background(), "staff", PostTypePhoto, DateRange{})

	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestQueryPostsHonoursCancellation(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(3), nil)
	defer srv.Close()

	client, _ := testClient(t, srv, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.QueryPosts(ctx, "staff", PostTypePhoto, DateRange{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeletePost(t *testing.T) {
	srv := tumblrtest.NewServer(nil, nil)
	defer srv.Close()
	srv.RejectDelete("13")

	client, log := testClient(t, srv, nil)

	assert.True(t, client.DeletePost(context.Background(), "staff", "12"))
	assert.False(t, client.DeletePost(context.Background(), "staff", "13"))
	assert.Equal(t, []string{"12"}, srv.Deleted())

	errors := log.GetMessagesByLevel("ERROR")
	require.Len(t, errors, 1)
	assert.Equal(t, 8001, errors[0].Fields["code"])
	assert.Equal(t, "Unable to delete post.", errors[0].Fields["msg"])
}

func TestDeletePosts(t *testing.T) {
	srv := tumblrtest.NewServer([]tumblrtest.Post{
		{ID: 4, Timestamp: ts("2024-04-01")},
		{ID: 3, Timestamp: ts("2024-03-01")},
		{ID: 2, Timestamp: ts("2024-02-01")},
		{ID: 1, Timestamp: ts("2024-01-01")},
	}, nil)
	defer srv.Close()
	srv.RejectDelete("2")

	client, _ := testClient(t, srv, nil)
	deleted, failed, err := client.DeletePosts(context.Background(), "staff", "", DateRange{End: day("2024-03-15")})

	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"3", "1"}, srv.Deleted())
}

func TestDeletePostsRequiresEnd(t *testing.T) {
	srv := tumblrtest.NewServer(datedPosts(2), nil)
	defer srv.Close()

	client, _ := testClient(t, srv, nil)
	_, _, err := client.DeletePosts(context.Background(), "staff", "", DateRange{Start: day("2020-01-01")})

	assert.Error(t, err)
	assert.Empty(t, srv.Deleted())
	assert.Zero(t, srv.PageCalls())
}
