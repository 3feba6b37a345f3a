package report

import (
	"fmt"
	"time"
)

const (
	// MaxReportDays is the largest day-count the platform accepts.
	MaxReportDays = 31

	// MaxReportRange is the widest start/end window the platform accepts.
	MaxReportRange = 30 * 24 * time.Hour
)

// Params describes one report request: either a day-count (1..31) or an
// explicit start/end date pair spanning at most 30 days. A nonzero Days
// takes precedence over the date pair.
type Params struct {
	Days  int
	Start time.Time
	End   time.Time
}

// Validate checks the platform limits. The configuration layer enforces
// the same rules at load time; this is the last line of defense against
// a malformed call.
func (p Params) Validate() error {
	if p.Days != 0 {
		if p.Days < 1 || p.Days > MaxReportDays {
			return fmt.Errorf("%w: day-count %d outside 1..%d", ErrInvalidParameters, p.Days, MaxReportDays)
		}

		return nil
	}

	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: neither day-count nor date range given", ErrInvalidParameters)
	}

	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalidParameters,
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
	}

	if p.End.Sub(p.Start) > MaxReportRange {
		return fmt.Errorf("%w: date range exceeds 30 days", ErrInvalidParameters)
	}

	return nil
}

// Window resolves the params into the concrete date pair sent to the
// gateway. A day-count N covers the N days up to and including yesterday.
func (p Params) Window(now time.Time) (start, end time.Time) {
	if p.Days != 0 {
		end = now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
		start = end.AddDate(0, 0, -(p.Days - 1))

		return start, end
	}

	return p.Start, p.End
}
