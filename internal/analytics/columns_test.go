package analytics

import (
	"testing"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

func TestReconcileColumns_ExplicitOrderSynthesizesEmpty(t *testing.T) {
	items := []domain.BoardItem{
		{Key: "K-1", Status: "Doing"},
		{Key: "K-2", Status: "Doing"},
		{Key: "K-3", Status: "Doing"},
	}
	cols := ReconcileColumns(items, map[string]string{"Doing": "doing"}, SLEMap{}, []string{"Backlog", "Doing", "Done"})

	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}
	for i, want := range []struct {
		name  string
		items int
	}{{"Backlog", 0}, {"Doing", 3}, {"Done", 0}} {
		if cols[i].Name != want.name || len(cols[i].Items) != want.items || cols[i].Order != i+1 {
			t.Fatalf("column %d = %q order=%d items=%d, want %q order=%d items=%d",
				i, cols[i].Name, cols[i].Order, len(cols[i].Items), want.name, i+1, want.items)
		}
	}
}

func TestReconcileColumns_SLEAttachedByID(t *testing.T) {
	items := []domain.BoardItem{{Key: "K-1", Status: "Doing"}}
	sles := SLEMap{"doing": {3, 5, 8}}
	cols := ReconcileColumns(items, map[string]string{"Doing": "doing"}, sles, nil)
	if len(cols) != 1 || len(cols[0].SLE) != 3 {
		t.Fatalf("expected SLE [3 5 8] attached, got %+v", cols)
	}
}

func TestReconcileColumns_NoHistoricalDataMeansNilSLE(t *testing.T) {
	items := []domain.BoardItem{{Key: "K-1", Status: "Doing"}}
	cols := ReconcileColumns(items, map[string]string{"Doing": "doing"}, SLEMap{}, nil)
	if cols[0].SLE != nil {
		t.Fatalf("expected nil SLE (renders as null), got %v", cols[0].SLE)
	}
}

func TestReconcileColumns_UnresolvableOrderedName(t *testing.T) {
	cols := ReconcileColumns(nil, map[string]string{}, SLEMap{"x": {1}}, []string{"Ghost"})
	if len(cols) != 1 || cols[0].Name != "Ghost" || cols[0].SLE != nil || len(cols[0].Items) != 0 {
		t.Fatalf("unresolvable ordered name must yield an empty column without SLE, got %+v", cols)
	}
}

func TestReconcileColumns_UnnamedSortAfterNamedInEncounterOrder(t *testing.T) {
	items := []domain.BoardItem{
		{Key: "K-1", Status: "Review"},
		{Key: "K-2", Status: "Doing"},
		{Key: "K-3", Status: "Review"},
	}
	cols := ReconcileColumns(items, map[string]string{}, SLEMap{}, []string{"Doing"})
	if len(cols) != 2 || cols[0].Name != "Doing" || cols[1].Name != "Review" {
		t.Fatalf("unexpected order: %+v", cols)
	}
	if cols[1].Order != 2 || len(cols[1].Items) != 2 {
		t.Fatalf("Review column wrong: %+v", cols[1])
	}
}
