package tumblr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBlog(t *testing.T) {
	tests := map[string]string{
		"staff":                     "staff.tumblr.com",
		"https://staff.tumblr.com/": "staff.tumblr.com",
		"http://Staff.tumblr.com":   "staff.tumblr.com",
		"blog.example.com":          "blog.example.com",
		"  staff  ":                 "staff.tumblr.com",
		"":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBlog(in), in)
	}
}

func TestPostsURL(t *testing.T) {
	assert.Equal(t,
		"https://api.tumblr.com/v2/blog/staff.tumblr.com/posts/photo?limit=20",
		PostsURL(DefaultBaseURL, "staff.tumblr.com", "photo", 0, 20))
	assert.Equal(t,
		"https://api.tumblr.com/v2/blog/staff.tumblr.com/posts?limit=20&offset=40",
		PostsURL(DefaultBaseURL+"/", "staff.tumblr.com", "", 40, 99))
}

func TestDeleteURL(t *testing.T) {
	assert.Equal(t, "https://api.tumblr.com/v2/blog/staff.tumblr.com/post/delete", DeleteURL(DefaultBaseURL, "staff.tumblr.com"))
}

func TestValidPostType(t *testing.T) {
	assert.True(t, ValidPostType(""))
	assert.True(t, ValidPostType("photo"))
	assert.False(t, ValidPostType("gif"))
}
