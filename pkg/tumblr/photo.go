package tumblr

import (
	"fmt"

	errs "ninlil/pkg/errors"
)

// Original returns the photo's original size when the API supplied one
func (p Photo) Original() (PhotoSize, bool) {
	if p.OriginalSize == nil || p.OriginalSize.URL == "" {
		return PhotoSize{}, false
	}
	return *p.OriginalSize, true
}

// Largest returns the tallest alternate size. Ties keep the first listed.
func (p Photo) Largest() (PhotoSize, bool) {
	var best PhotoSize
	found := false
	for _, alt := range p.AltSizes {
		if alt.URL == "" {
			continue
		}
		if !found || alt.Height > best.Height {
			best = alt
			found = true
		}
	}
	return best, found
}

// ChooseURL picks the URL of the best resolution variant of a photo: the
// original size when present, the tallest alternate otherwise. A photo with
// neither yields a data integrity error.
func ChooseURL(p Photo) (string, error) {
	if orig, ok := p.Original(); ok {
		return orig.URL, nil
	}
	if alt, ok := p.Largest(); ok {
		return alt.URL, nil
	}
	return "", errs.DataIntegrityError(fmt.Sprintf("photo has no original size and %d usable alternate sizes", len(p.AltSizes)))
}
