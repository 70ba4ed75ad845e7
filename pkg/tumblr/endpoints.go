package tumblr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the Tumblr v2 API root
	DefaultBaseURL = "https://api.tumblr.com/v2"

	// OAuth 1.0a endpoints
	RequestTokenURL = "https://www.tumblr.com/oauth/request_token"
	AuthorizeURL    = "https://www.tumblr.com/oauth/authorize"
	AccessTokenURL  = "https://www.tumblr.com/oauth/access_token"

	// DefaultPageSize is the number of posts requested per page
	DefaultPageSize = 20

	// MaxPageSize is the largest page the posts endpoint will return
	MaxPageSize = 20

	// PostTypePhoto selects photo posts
	PostTypePhoto = "photo"
)

// PostTypes lists the post types the posts endpoint accepts as a filter
var PostTypes = []string{"text", "quote", "link", "answer", "video", "audio", "photo", "chat"}

// ValidPostType reports whether t is empty (all posts) or a known post type
func ValidPostType(t string) bool {
	if t == "" {
		return true
	}
	for _, known := range PostTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NormalizeBlog turns a blog URL or bare name into the identifier the API expects.
// "https://staff.tumblr.com/" and "staff" both become "staff.tumblr.com".
func NormalizeBlog(blog string) string {
	b := strings.TrimSpace(blog)
	b = strings.TrimPrefix(b, "https://")
	b = strings.TrimPrefix(b, "http://")
	if i := strings.IndexByte(b, '/'); i >= 0 {
		b = b[:i]
	}
	b = strings.ToLower(b)
	if b != "" && !strings.Contains(b, ".") {
		b += ".tumblr.com"
	}
	return b
}

// PostsURL constructs the URL for one page of a blog's posts
func PostsURL(baseURL, blog, postType string, offset, limit int) string {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	path := fmt.Sprintf("%s/blog/%s/posts", strings.TrimRight(baseURL, "/"), url.PathEscape(blog))
	if postType != "" {
		path += "/" + url.PathEscape(postType)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	return path + "?" + params.Encode()
}

// DeleteURL constructs the URL for deleting a post on a blog
func DeleteURL(baseURL, blog string) string {
	return fmt.Sprintf("%s/blog/%s/post/delete", strings.TrimRight(baseURL, "/"), url.PathEscape(blog))
}
