package archive

import (
	"net/url"
	"path"
	"strings"
	"time"

	"ninlil/pkg/tumblr"
)

// ContentTypePhotos is the prefix content type used for photo archives
const ContentTypePhotos = "photos"

// Prefix names an archive after its content type and date range, for example
// "photos_2023-01-01_2024-01-01". An unbounded start renders as the Unix
// epoch and an unbounded end as now. Two jobs for the same range on the same
// day share a prefix; each job's fresh work directory keeps them apart.
func Prefix(contentType string, r tumblr.DateRange, now time.Time) string {
	start := time.Unix(0, 0).UTC()
	if !r.Start.IsZero() {
		start = r.Start
	}
	end := now
	if !r.End.IsZero() {
		end = r.End
	}

	return sanitize(contentType) + "_" +
		start.UTC().Format(tumblr.DateLayout) + "_" +
		end.UTC().Format(tumblr.DateLayout)
}

// EntryName returns the zip member name for a photo: {prefix}/{postID}_{basename}.
// The basename comes from the URL path, so query strings never leak into it.
func EntryName(prefix, postID, photoURL string) string {
	base := ""
	if u, err := url.Parse(photoURL); err == nil {
		base = path.Base(u.Path)
	} else {
		base = path.Base(photoURL)
	}
	if base == "." || base == "/" || base == "" {
		base = "photo"
	}
	return prefix + "/" + sanitize(postID) + "_" + sanitize(base)
}

// sanitize keeps a name safe to use as a file or zip path component
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "unnamed"
	}
	return out
}
