package tumblr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/logger"
	"ninlil/pkg/ratelimit"
	"ninlil/pkg/retry"
)

// Client talks to the Tumblr v2 API through an OAuth-signed HTTP client
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageSize   int
	maxPages   int
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client. httpClient must already sign requests with the
// user's credentials (see oauth.Flow.HTTPClient).
func NewClient(httpClient *http.Client, cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	pageSize := cfg.API.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	baseURL := cfg.Tumblr.APIBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  cfg.Tumblr.UserAgent,
		pageSize:   pageSize,
		maxPages:   cfg.API.MaxPages,
		limiter:    ratelimit.FromSettings(cfg.RateLimit),
		retry:      retry.FromSettings(cfg.Retry, log),
		logger:     log,
	}
}

// SetLimiter replaces the request limiter, letting callers share one budget
// between API pages and photo downloads
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetRetry replaces the retry policy used for listing requests
func (c *Client) SetRetry(cfg *retry.Config) {
	c.retry = cfg
}

// QueryPosts lists every post of postType on blog and keeps those published
// inside r, in the order the API returned them (newest first).
//
// Pages are walked with offset/limit until a short page, the reported total,
// a page older than r.Start, or the configured page cap. Hitting the cap
// while more posts may exist is logged as a truncation.
func (c *Client) QueryPosts(ctx context.Context, blog, postType string, r DateRange) ([]Post, error) {
	blog = NormalizeBlog(blog)
	log := c.logger.WithFields(map[string]interface{}{
		"blog":       blog,
		"post_type":  postType,
		"date_range": r.String(),
	})

	var matched []Post
	offset := 0
	for page := 0; ; page++ {
		if c.maxPages > 0 && page >= c.maxPages {
			log.WarnWithFields("post listing truncated at page cap, older posts in range may be missing", map[string]interface{}{
				"max_pages": c.maxPages,
				"fetched":   offset,
			})
			break
		}

		resp, err := c.fetchPostsPage(ctx, blog, postType, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list posts of %s at offset %d: %w", blog, offset, err)
		}

		oldest := int64(-1)
		for _, post := range resp.Posts {
			if oldest < 0 || post.Timestamp < oldest {
				oldest = post.Timestamp
			}
			if r.Contains(post.Time()) {
				matched = append(matched, post)
			}
		}
		offset += len(resp.Posts)

		log.DebugWithFields("fetched posts page", map[string]interface{}{
			"page":    page + 1,
			"posts":   len(resp.Posts),
			"total":   resp.TotalPosts,
			"matched": len(matched),
		})

		if len(resp.Posts) < c.pageSize {
			break
		}
		if resp.TotalPosts > 0 && offset >= resp.TotalPosts {
			break
		}
		if !r.Start.IsZero() && oldest >= 0 && time.Unix(oldest, 0).Before(r.Start) {
			break
		}
	}

	log.InfoWithFields("posts queried", map[string]interface{}{
		"scanned": offset,
		"matched": len(matched),
	})
	return matched, nil
}

func (c *Client) fetchPostsPage(ctx context.Context, blog, postType string, offset int) (*PostsResponse, error) {
	pageURL := PostsURL(c.baseURL, blog, postType, offset, c.pageSize)

	return retry.DoWithResult(ctx, func(ctx context.Context) (*PostsResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		var resp PostsResponse
		if err := c.do(req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}, c.retry)
}

// DeletePost deletes one post. A rejected request is logged with the remote
// code and message and reported as false rather than returned as an error.
func (c *Client) DeletePost(ctx context.Context, blog, postID string) bool {
	blog = NormalizeBlog(blog)
	if err := c.deletePost(ctx, blog, postID); err != nil {
		fields := map[string]interface{}{
			"blog":    blog,
			"post_id": postID,
		}
		var apiErr *errs.Error
		if errors.As(err, &apiErr) {
			fields["code"] = apiErr.Code
			fields["msg"] = apiErr.Message
		}
		c.logger.WithError(err).ErrorWithFields("error deleting a post", fields)
		return false
	}

	c.logger.InfoWithFields("post deleted", map[string]interface{}{
		"blog":    blog,
		"post_id": postID,
	})
	return true
}

func (c *Client) deletePost(ctx context.Context, blog, postID string) error {
	form := url.Values{}
	form.Set("id", postID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, DeleteURL(c.baseURL, blog), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp DeleteResponse
	return c.do(req, &resp)
}

// DeletePosts deletes every post of postType published inside r and returns
// how many deletions succeeded and failed. The range must have an end bound
// so an empty range can never select a whole blog.
func (c *Client) DeletePosts(ctx context.Context, blog, postType string, r DateRange) (deleted, failed int, err error) {
	if r.End.IsZero() {
		return 0, 0, fmt.Errorf("refusing to delete posts without an end date")
	}

	posts, err := c.QueryPosts(ctx, blog, postType, r)
	if err != nil {
		return 0, 0, err
	}

	c.logger.WarnWithFields("deleting posts in date range", map[string]interface{}{
		"blog":       NormalizeBlog(blog),
		"count":      len(posts),
		"date_range": r.String(),
	})

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return deleted, failed, err
		}
		if c.DeletePost(ctx, blog, post.Identifier()) {
			deleted++
		} else {
			failed++
		}
	}
	return deleted, failed, nil
}

// do sends req after waiting on the limiter and decodes the response payload into target
func (c *Client) do(req *http.Request, target interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.NetworkError(req.URL.String(), 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NetworkError(req.URL.String(), 0, err)
	}

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return statusError(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
		}
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Code:    resp.StatusCode,
			URL:     req.URL.String(),
			Err:     err,
		}
	}

	status := resp.StatusCode
	if env.Meta.Status != 0 {
		status = env.Meta.Status
	}
	if status < 200 || status > 299 {
		return statusError(status, env.Meta.Msg, env.Errors)
	}

	if target == nil || len(env.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Response, target); err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse response payload: %v", err),
			Code:    status,
			URL:     req.URL.String(),
			Err:     err,
		}
	}
	return nil
}

// statusError maps a failed API response onto the error kinds callers switch on.
// Transient statuses stay retryable; everything else is a remote rejection.
func statusError(status int, msg string, apiErrors []APIError) error {
	code := status
	if len(apiErrors) > 0 {
		if apiErrors[0].Code != 0 {
			code = apiErrors[0].Code
		}
		if apiErrors[0].Detail != "" {
			msg = apiErrors[0].Detail
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch errs.TypeForStatus(status) {
	case errs.ErrorTypeRateLimit, errs.ErrorTypeServerError:
		return &errs.Error{Type: errs.TypeForStatus(status), Message: msg, Code: status}
	case errs.ErrorTypeAuth:
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: msg, Code: code}
	default:
		return errs.RemoteAPIError(code, msg)
	}
}
