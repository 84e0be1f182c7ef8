package analytics

import (
	"testing"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

func TestBuildCategoryMap_BothAPIShapes(t *testing.T) {
	m := BuildCategoryMap([]domain.StatusDef{
		{ID: "1", Name: "Backlog", Category: "TODO"},
		{ID: "3", Name: "Doing", Category: "indeterminate"},
		{ID: "5", Name: "Closed", Category: "done"},
		{ID: "6", Name: "Released", Category: "DONE"},
	})
	cases := map[string]domain.StatusCategory{
		"1": domain.CategoryBacklog, "Backlog": domain.CategoryBacklog,
		"3": domain.CategoryActive, "Doing": domain.CategoryActive,
		"5": domain.CategoryDone, "Closed": domain.CategoryDone,
		"6": domain.CategoryDone, "Released": domain.CategoryDone,
	}
	for key, want := range cases {
		got, ok := m.Lookup(key)
		if !ok || got != want {
			t.Fatalf("Lookup(%q) = %v, %v; want %v", key, got, ok, want)
		}
	}
}

func TestBuildCategoryMap_UnknownCategoryOmitted(t *testing.T) {
	m := BuildCategoryMap([]domain.StatusDef{
		{ID: "9", Name: "Weird", Category: "LIMBO"},
		{ID: "10", Name: "Empty", Category: ""},
	})
	if len(m) != 0 {
		t.Fatalf("expected unknown categories to be omitted, got %v", m)
	}
	if _, ok := m.Lookup("9"); ok {
		t.Fatalf("lookup of unmapped status must report missing, not Backlog")
	}
}
