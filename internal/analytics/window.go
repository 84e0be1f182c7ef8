package analytics

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

// WindowKind selects which variant of a Window is active.
type WindowKind int

const (
	// ByDate keeps records whose exit is on or after a cutoff date.
	ByDate WindowKind = iota
	// ByCount keeps the N most recent records by exit timestamp.
	ByCount
)

// Window restricts a pool of historical transition records. Exactly one
// variant is active; ParseWindow is the only constructor.
type Window struct {
	Kind   WindowKind
	Cutoff time.Time
	Count  int
}

var relativeDaysRe = regexp.MustCompile(`^(\d+)d$`)

// ParseWindow turns a window specification string into a Window:
//
//	"90d"        -> ByDate(reference - 90 days)
//	"2024-01-01" -> ByDate(that date)
//	"20240101"   -> ByDate(that date)
//	"100"        -> ByCount(100)
//
// Anything else is a format error. An ambiguous window would silently change
// what an SLE means, so this is fatal for the request rather than defaulted.
func ParseWindow(spec string, reference time.Time) (Window, error) {
	if m := relativeDaysRe.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Window{}, fmt.Errorf("window %q: %w", spec, err)
		}
		cutoff := midnight(reference).AddDate(0, 0, -n)
		return Window{Kind: ByDate, Cutoff: cutoff}, nil
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, spec); err == nil {
			return Window{Kind: ByDate, Cutoff: t}, nil
		}
	}
	if n, err := strconv.Atoi(spec); err == nil {
		if n < 0 {
			return Window{}, fmt.Errorf("window %q: count must not be negative", spec)
		}
		return Window{Kind: ByCount, Count: n}, nil
	}
	return Window{}, fmt.Errorf("window %q: want \"<N>d\", an ISO date, or a record count", spec)
}

// Apply filters records down to the window. ByDate keeps records whose exit
// date is on or after the cutoff; ByCount keeps the N most recent by exit
// timestamp. The input slice is not modified.
func (w Window) Apply(records []domain.TransitionRecord) []domain.TransitionRecord {
	switch w.Kind {
	case ByDate:
		var out []domain.TransitionRecord
		for _, r := range records {
			if !midnight(r.ExitAt).Before(w.Cutoff) {
				out = append(out, r)
			}
		}
		return out
	case ByCount:
		sorted := make([]domain.TransitionRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ExitAt.After(sorted[j].ExitAt) })
		if len(sorted) > w.Count {
			sorted = sorted[:w.Count]
		}
		return sorted
	}
	return nil
}
