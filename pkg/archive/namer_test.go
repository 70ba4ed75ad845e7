package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ninlil/pkg/tumblr"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(tumblr.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPrefix(t *testing.T) {
	now := time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC)

	tests := []struct {
		name        string
		contentType string
		r           tumblr.DateRange
		want        string
	}{
		{
			name:        "bounded",
			contentType: ContentTypePhotos,
			r:           tumblr.DateRange{Start: day("2023-01-01"), End: day("2023-07-01")},
			want:        "photos_2023-01-01_2023-07-01",
		},
		{
			name:        "unbounded start renders as epoch",
			contentType: ContentTypePhotos,
			r:           tumblr.DateRange{End: day("2023-07-01")},
			want:        "photos_1970-01-01_2023-07-01",
		},
		{
			name:        "unbounded end renders as now",
			contentType: ContentTypePhotos,
			r:           tumblr.DateRange{Start: day("2023-01-01")},
			want:        "photos_2023-01-01_2024-03-09",
		},
		{
			name:        "fully unbounded",
			contentType: ContentTypePhotos,
			want:        "photos_1970-01-01_2024-03-09",
		},
		{
			name:        "unsafe content type",
			contentType: "../my photos",
			r:           tumblr.DateRange{Start: day("2023-01-01"), End: day("2023-07-01")},
			want:        "-my-photos_2023-01-01_2023-07-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prefix(tt.contentType, tt.r, now))
		})
	}
}

func TestPrefixUsesUTCDates(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2024, 3, 10, 2, 0, 0, 0, tokyo)

	assert.Equal(t, "photos_1970-01-01_2024-03-09", Prefix(ContentTypePhotos, tumblr.DateRange{}, now))
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name   string
		postID string
		url    string
		want   string
	}{
		{
			name:   "plain url",
			postID: "123",
			url:    "https://64.media.tumblr.com/abc/tumblr_xyz_1280.jpg",
			want:   "photos/123_tumblr_xyz_1280.jpg",
		},
		{
			name:   "query string dropped",
			postID: "123",
			url:    "https://media.example/a/b.png?w=500&h=375",
			want:   "photos/123_b.png",
		},
		{
			name:   "url without path",
			postID: "9",
			url:    "https://media.example",
			want:   "photos/9_photo",
		},
		{
			name:   "unsafe characters replaced",
			postID: "42",
			url:    "https://media.example/some%20file name.gif",
			want:   "photos/42_some-file-name.gif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryName("photos", tt.postID, tt.url))
		})
	}
}
