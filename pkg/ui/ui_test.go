package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ninlil/pkg/archive"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prevOut, prevErr, prevColor := Out, ErrOut, NoColor
	Out, ErrOut, NoColor = buf, buf, true
	t.Cleanup(func() { Out, ErrOut, NoColor = prevOut, prevErr, prevColor })
	return buf
}

func TestColorize(t *testing.T) {
	NoColor = false
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))

	capture(t)
	assert.Equal(t, "ok", Green("ok"))
}

func TestPrintHelpers(t *testing.T) {
	buf := capture(t)

	PrintInfo("Blog", "staff.tumblr.com")
	PrintError("Archive failed", errors.New("network error"))
	PrintError("Plain", nil)

	assert.Equal(t, "Blog: staff.tumblr.com\nArchive failed: network error\nPlain\n", buf.String())
}

func TestPrintArchiveSummary(t *testing.T) {
	buf := capture(t)

	PrintArchiveSummary(&archive.Result{
		Path:    "/archives/photos_2023-01-01_2024-01-01.zip",
		Posts:   3,
		Entries: 5,
		Skipped: []archive.SkippedPhoto{{PostID: "42", Index: 1, Reason: "no sizes"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Path: /archives/photos_2023-01-01_2024-01-01.zip")
	assert.Contains(t, out, "Photos: 5")
	assert.Contains(t, out, "1 photo(s) had no downloadable size")
	assert.Contains(t, out, "42 #2 no sizes")
}

func TestPrintDeleteSummary(t *testing.T) {
	buf := capture(t)

	PrintDeleteSummary(4, 0)
	PrintDeleteSummary(3, 1)

	assert.Contains(t, buf.String(), "Deleted 4 post(s)")
	assert.Contains(t, buf.String(), "Deleted 3 post(s), 1 failed")
}
