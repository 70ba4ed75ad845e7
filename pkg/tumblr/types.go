package tumblr

import (
	"encoding/json"
	"time"
)

// Post is a single post as returned by the posts endpoint
type Post struct {
	ID        json.Number `json:"id"`
	IDString  string      `json:"id_string"`
	BlogName  string      `json:"blog_name"`
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	PostURL   string      `json:"post_url"`
	Photos    []Photo     `json:"photos"`
}

// Identifier returns the post ID as a string, preferring the lossless id_string
func (p Post) Identifier() string {
	if p.IDString != "" {
		return p.IDString
	}
	return p.ID.String()
}

// Time returns the post's publish time in UTC
func (p Post) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// Photo is one image attachment of a photo post
type Photo struct {
	Caption      string      `json:"caption"`
	OriginalSize *PhotoSize  `json:"original_size,omitempty"`
	AltSizes     []PhotoSize `json:"alt_sizes"`
}

// PhotoSize is one resolution variant of a photo
type PhotoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Meta carries the HTTP-like status Tumblr repeats inside every response body
type Meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// APIError is one entry of the errors list Tumblr attaches to failed requests
type APIError struct {
	Title  string `json:"title"`
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// envelope is the outer shape of every API response. Response stays raw
// because failed requests send an empty array there instead of an object.
type envelope struct {
	Meta     Meta            `json:"meta"`
	Response json.RawMessage `json:"response"`
	Errors   []APIError      `json:"errors"`
}

// PostsResponse is the payload of the posts endpoint
type PostsResponse struct {
	Posts      []Post `json:"posts"`
	TotalPosts int    `json:"total_posts"`
}

// DeleteResponse is the payload of the post/delete endpoint
type DeleteResponse struct {
	ID       json.Number `json:"id"`
	IDString string      `json:"id_string"`
}
