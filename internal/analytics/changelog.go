package analytics

import (
	"sort"
	"time"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

// FirstStableBacklogExit scans an issue's changelog for the first transition
// out of the Backlog category that is not reversed later the same calendar
// day. Items routinely bounce in and out of the backlog during triage;
// counting those bounces as "work started" would understate aging, so an exit
// only counts once the issue ends the day outside Backlog.
//
// The scan owns its ordering: events are sorted oldest-first before walking,
// regardless of delivered order. Returns the zero time when no stable exit
// exists (callers fall back to the creation date).
func FirstStableBacklogExit(changelog []domain.StatusChange, cats CategoryMap) time.Time {
	events := make([]domain.StatusChange, len(changelog))
	copy(events, changelog)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })

	var skipDay time.Time
	for i, e := range events {
		from, okFrom := cats.Lookup(e.FromID)
		to, okTo := cats.Lookup(e.ToID)
		if !okFrom || !okTo || from != domain.CategoryBacklog || to == domain.CategoryBacklog {
			continue
		}
		if !skipDay.IsZero() && sameDay(e.At, skipDay) {
			continue
		}
		if bouncesBackSameDay(events[i+1:], e.At, cats) {
			// The whole day is disqualified, not just this candidate.
			skipDay = e.At
			continue
		}
		return e.At
	}
	return time.Time{}
}

// bouncesBackSameDay reports whether any later event on the candidate's
// calendar day (event local date, not a rolling 24h window) moves the issue
// back into Backlog.
func bouncesBackSameDay(later []domain.StatusChange, candidate time.Time, cats CategoryMap) bool {
	for _, e := range later {
		if !sameDay(e.At, candidate) {
			break
		}
		if to, ok := cats.Lookup(e.ToID); ok && to == domain.CategoryBacklog {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LatestEntryIntoStatus returns the timestamp of the most recent transition
// into the given status. The changelog is read in delivered order, which the
// source API serves newest first; the first match is therefore the latest
// entry. Returns the zero time when the status never appears as a target.
func LatestEntryIntoStatus(changelog []domain.StatusChange, statusID string) time.Time {
	for _, e := range changelog {
		if e.ToID == statusID {
			return e.At
		}
	}
	return time.Time{}
}
