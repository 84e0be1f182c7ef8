package analytics

import (
	"testing"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

func historicalIssue(key string, created string, changes ...domain.StatusChange) domain.Issue {
	return domain.Issue{
		Key:       key,
		Status:    domain.StatusRef{ID: "done", Name: "Done"},
		CreatedAt: day(created),
		Changelog: changes,
	}
}

func TestCollectTransitions_EmitsExitPerStatusChange(t *testing.T) {
	iss := historicalIssue("K-1", "2024-01-01",
		domain.StatusChange{At: at("2024-01-05", "09:00"), FromID: "backlog", ToID: "doing"},
		domain.StatusChange{At: at("2024-01-08", "09:00"), FromID: "doing", ToID: "review"},
		domain.StatusChange{At: at("2024-01-12", "09:00"), FromID: "review", ToID: "done"},
	)
	got := CollectTransitions(iss, testCats)

	if len(got["backlog"]) != 1 || len(got["doing"]) != 1 || len(got["review"]) != 1 {
		t.Fatalf("unexpected grouping: %v", got)
	}
	// Anchor is the stable exit on Jan 5. Exit from doing on Jan 8 -> age 4.
	if a := got["doing"][0].AgeAtExit; a != 4 {
		t.Fatalf("doing exit age = %d, want 4", a)
	}
	// Exit from backlog happened at the anchor itself: day 1.
	if a := got["backlog"][0].AgeAtExit; a != 1 {
		t.Fatalf("backlog exit age = %d, want 1", a)
	}
	if a := got["review"][0].AgeAtExit; a != 8 {
		t.Fatalf("review exit age = %d, want 8", a)
	}
}

func TestCollectTransitions_CreationFallbackAnchor(t *testing.T) {
	// No resolvable backlog exit: ages anchor at the creation date.
	iss := historicalIssue("K-2", "2024-01-01",
		domain.StatusChange{At: at("2024-01-10", "09:00"), FromID: "doing", ToID: "done"},
	)
	got := CollectTransitions(iss, testCats)
	if a := got["doing"][0].AgeAtExit; a != 10 {
		t.Fatalf("doing exit age = %d, want 10 (anchored at creation)", a)
	}
}

func TestAssembleSLEs_PerStatusThresholds(t *testing.T) {
	history := []domain.Issue{
		historicalIssue("K-1", "2024-01-01",
			domain.StatusChange{At: at("2024-03-01", "09:00"), FromID: "backlog", ToID: "doing"},
			domain.StatusChange{At: at("2024-03-03", "09:00"), FromID: "doing", ToID: "done"},
		),
		historicalIssue("K-2", "2024-01-01",
			domain.StatusChange{At: at("2024-03-02", "09:00"), FromID: "backlog", ToID: "doing"},
			domain.StatusChange{At: at("2024-03-08", "09:00"), FromID: "doing", ToID: "done"},
		),
	}
	w, err := ParseWindow("90d", day("2024-04-01"))
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	sles := AssembleSLEs(history, testCats, w, []float64{50, 100})

	// Exits from doing: ages 3 (K-1) and 7 (K-2). p50 = 5, p100 = 7.
	got, ok := sles["doing"]
	if !ok {
		t.Fatalf("missing SLE for doing: %v", sles)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 7 {
		t.Fatalf("doing SLE = %v, want [5 7]", got)
	}
}

func TestAssembleSLEs_EmptySampleOmitted(t *testing.T) {
	history := []domain.Issue{
		historicalIssue("K-1", "2024-01-01",
			domain.StatusChange{At: at("2024-01-05", "09:00"), FromID: "backlog", ToID: "doing"},
			domain.StatusChange{At: at("2024-01-06", "09:00"), FromID: "doing", ToID: "done"},
		),
	}
	// Window starts long after every exit: all samples filtered out.
	w, _ := ParseWindow("2024-03-01", day("2024-04-01"))
	sles := AssembleSLEs(history, testCats, w, []float64{50})
	if _, ok := sles["doing"]; ok {
		t.Fatalf("status with empty windowed sample must be absent, got %v", sles)
	}
	if len(sles) != 0 {
		t.Fatalf("expected empty SLE map, got %v", sles)
	}
}

func TestAssembleSLEs_CountWindow(t *testing.T) {
	history := []domain.Issue{
		historicalIssue("K-1", "2024-01-01",
			domain.StatusChange{At: at("2024-01-02", "09:00"), FromID: "backlog", ToID: "doing"},
			domain.StatusChange{At: at("2024-01-03", "09:00"), FromID: "doing", ToID: "done"},
		),
		historicalIssue("K-2", "2024-01-01",
			domain.StatusChange{At: at("2024-02-01", "09:00"), FromID: "backlog", ToID: "doing"},
			domain.StatusChange{At: at("2024-02-10", "09:00"), FromID: "doing", ToID: "done"},
		),
	}
	w, _ := ParseWindow("1", day("2024-04-01"))
	sles := AssembleSLEs(history, testCats, w, []float64{100})
	// Only K-2's exit (the most recent) survives: age 10.
	if got := sles["doing"]; len(got) != 1 || got[0] != 10 {
		t.Fatalf("doing SLE = %v, want [10]", got)
	}
}
