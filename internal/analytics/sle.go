package analytics

import (
	"sort"
	"time"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

// SLEMap holds the computed thresholds per status id. Statuses with no
// surviving records after windowing are absent, never present with zeros:
// the consumer renders "no data" for an absent status, and a zero-day SLE
// would be a lie.
type SLEMap map[string][]int

// CollectTransitions walks one historical issue's changelog chronologically,
// tracking the currently open status, and emits one TransitionRecord each
// time that status changes. AgeAtExit is the issue's overall age at the
// moment of exit, anchored at its stable backlog exit (or creation date),
// clamped to >= 1 like every age this engine reports.
func CollectTransitions(issue domain.Issue, cats CategoryMap) map[string][]domain.TransitionRecord {
	anchor := FirstStableBacklogExit(issue.Changelog, cats)
	if anchor.IsZero() {
		anchor = issue.CreatedAt
	}

	events := make([]domain.StatusChange, len(issue.Changelog))
	copy(events, issue.Changelog)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })

	out := map[string][]domain.TransitionRecord{}
	open := ""
	for _, e := range events {
		if open == "" {
			open = e.FromID
		}
		if e.ToID == open {
			continue
		}
		if open != "" {
			out[open] = append(out[open], domain.TransitionRecord{
				IssueKey:  issue.Key,
				ExitAt:    e.At,
				AgeAtExit: AgeInDays(anchor, e.At),
			})
		}
		open = e.ToID
	}
	return out
}

// AssembleSLEs orchestrates SLE computation across a historical issue set:
// collect exit records per status, restrict each status's pool to the window,
// then compute the requested percentiles over the ascending-sorted ages.
func AssembleSLEs(history []domain.Issue, cats CategoryMap, window Window, percentiles []float64) SLEMap {
	byStatus := map[string][]domain.TransitionRecord{}
	for _, issue := range history {
		for status, recs := range CollectTransitions(issue, cats) {
			byStatus[status] = append(byStatus[status], recs...)
		}
	}

	sles := SLEMap{}
	for status, recs := range byStatus {
		kept := window.Apply(recs)
		if len(kept) == 0 {
			continue
		}
		ages := make([]int, 0, len(kept))
		for _, r := range kept {
			ages = append(ages, r.AgeAtExit)
		}
		sort.Ints(ages)
		sles[status] = Thresholds(ages, percentiles)
	}
	return sles
}

// Reference wraps the pieces of an analytics request that every computation
// shares: the as-of date, the parsed window, and the percentile list.
type Reference struct {
	Date        time.Time
	Window      Window
	Percentiles []float64
}
