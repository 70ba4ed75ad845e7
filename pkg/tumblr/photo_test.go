package tumblr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "ninlil/pkg/errors"
)

func size(url string, height int) PhotoSize {
	return PhotoSize{URL: url, Width: height, Height: height}
}

func TestChooseURL(t *testing.T) {
	original := size("https://64.media.tumblr.com/orig.jpg", 300)

	tests := []struct {
		name  string
		photo Photo
		want  string
	}{
		{
			name:  "original wins over taller alternates",
			photo: Photo{OriginalSize: &original, AltSizes: []PhotoSize{size("https://x/tall.jpg", 1280)}},
			want:  "https://64.media.tumblr.com/orig.jpg",
		},
		{
			name:  "tallest alternate",
			photo: Photo{AltSizes: []PhotoSize{size("https://x/100.jpg", 100), size("https://x/400.jpg", 400), size("https://x/250.jpg", 250)}},
			want:  "https://x/400.jpg",
		},
		{
			name:  "first of tied alternates",
			photo: Photo{AltSizes: []PhotoSize{size("https://x/a.jpg", 500), size("https://x/b.jpg", 500), size("https://x/c.jpg", 75)}},
			want:  "https://x/a.jpg",
		},
		{
			name:  "original without url falls back",
			photo: Photo{OriginalSize: &PhotoSize{}, AltSizes: []PhotoSize{size("https://x/only.jpg", 75)}},
			want:  "https://x/only.jpg",
		},
		{
			name:  "zero height alternate still selectable",
			photo: Photo{AltSizes: []PhotoSize{size("https://x/zero.jpg", 0)}},
			want:  "https://x/zero.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChooseURL(tt.photo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChooseURLWithoutSizes(t *testing.T) {
	_, err := ChooseURL(Photo{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeDataIntegrity))

	_, err = ChooseURL(Photo{AltSizes: []PhotoSize{{Height: 500}}})
	assert.True(t, errs.Is(err, errs.ErrorTypeDataIntegrity))
}

func TestPhotoDecodesMissingOriginal(t *testing.T) {
	var p Photo
	require.NoError(t, json.Unmarshal([]byte(`{"alt_sizes":[{"url":"https://x/1.jpg","width":75,"height":75}]}`), &p))

	_, ok := p.Original()
	assert.False(t, ok)

	alt, ok := p.Largest()
	require.True(t, ok)
	assert.Equal(t, "https://x/1.jpg", alt.URL)
}

func TestPostIdentifier(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":158169280796,"blog_name":"staff","timestamp":1700000000}`), &p))
	assert.Equal(t, "158169280796", p.Identifier())
	assert.Equal(t, int64(1700000000), p.Time().Unix())

	p.IDString = "158169280797"
	assert.Equal(t, "158169280797", p.Identifier())
}
