package tumblr

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for range boundaries
const DateLayout = "2006-01-02"

// DateRange is a half-open [Start, End) window. A zero boundary is unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// InRange reports whether t falls inside [start, end). Zero boundaries never exclude.
func InRange(t, start, end time.Time) bool {
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	if !start.IsZero() && t.Before(start) {
		return false
	}
	return true
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	return InRange(t, r.Start, r.End)
}

// Unbounded reports whether neither boundary is set
func (r DateRange) Unbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	format := func(t time.Time, open string) string {
		if t.IsZero() {
			return open
		}
		return t.UTC().Format(DateLayout)
	}
	return fmt.Sprintf("[%s, %s)", format(r.Start, "-inf"), format(r.End, "+inf"))
}

// ParseDateRange parses optional YYYY-MM-DD boundaries as UTC midnights.
// Empty strings leave the boundary unbounded.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error

	if s := strings.TrimSpace(start); s != "" {
		if r.Start, err = time.ParseInLocation(DateLayout, s, time.UTC); err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if e := strings.TrimSpace(end); e != "" {
		if r.End, err = time.ParseInLocation(DateLayout, e, time.UTC); err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}

	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return r, nil
}
