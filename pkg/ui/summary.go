package ui

import (
	"fmt"
	"strconv"

	"ninlil/pkg/archive"
)

// PrintArchiveSummary reports a finished archive and lists any photos that were left out
func PrintArchiveSummary(result *archive.Result) {
	PrintSuccess("✓ Archive ready")
	PrintInfo("Path", result.Path)
	PrintInfo("Posts", strconv.Itoa(result.Posts))
	PrintInfo("Photos", strconv.Itoa(result.Entries))

	if result.Complete() {
		return
	}

	PrintWarning(fmt.Sprintf("%d photo(s) had no downloadable size and were skipped:", len(result.Skipped)))
	for _, s := range result.Skipped {
		fmt.Fprintf(Out, "  %s %s #%d %s\n", Dim("-"), s.PostID, s.Index+1, Dim(s.Reason))
	}
}

// PrintDeleteSummary reports the outcome of a bulk delete
func PrintDeleteSummary(deleted, failed int) {
	if failed == 0 {
		PrintSuccess(fmt.Sprintf("✓ Deleted %d post(s)", deleted))
		return
	}
	PrintWarning(fmt.Sprintf("Deleted %d post(s), %d failed (see log for remote error codes)", deleted, failed))
}
