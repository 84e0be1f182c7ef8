package analytics

import (
	"time"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

const dateLayout = "2006-01-02"

// CalculateAging turns an issue's anchor dates into the two day counts the
// board renders. The anchor is the stable backlog exit when one exists,
// otherwise the creation date; same fallback for the current-state entry.
// An item is on day 1 the moment work starts, so both counts clamp to >= 1
// (which also absorbs a reference date behind the anchor).
func CalculateAging(anchor, currentStateAnchor, reference time.Time) domain.Aging {
	return domain.Aging{
		TotalAge:              AgeInDays(anchor, reference),
		CurrentStateAge:       AgeInDays(currentStateAnchor, reference),
		StartDate:             anchor.Format(dateLayout),
		CurrentStateStartDate: currentStateAnchor.Format(dateLayout),
	}
}

// AgeInDays computes floor(whole days between anchor and reference) + 1,
// floored at 1. Both timestamps are truncated to their calendar date first so
// a partial day never shifts the count.
func AgeInDays(anchor, reference time.Time) int {
	days := int(midnight(reference).Sub(midnight(anchor)).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
