package analytics

import (
	"strings"

	"github.com/paulera/aging-wip-ui/internal/domain"
)

// CategoryMap resolves a status id or status name to its lifecycle category.
// Built once per request and treated as read-only afterwards.
type CategoryMap map[string]domain.StatusCategory

// BuildCategoryMap normalizes status definitions into a lookup keyed by both
// status id and status name. Definitions whose category cannot be resolved are
// omitted entirely: downstream code must treat a missing entry as "unknown",
// never as Backlog.
func BuildCategoryMap(defs []domain.StatusDef) CategoryMap {
	m := make(CategoryMap, len(defs)*2)
	for _, d := range defs {
		cat, ok := parseCategory(d.Category)
		if !ok {
			continue
		}
		if d.ID != "" {
			m[d.ID] = cat
		}
		if d.Name != "" {
			m[d.Name] = cat
		}
	}
	return m
}

// Lookup reports the category for a status id or name, and whether one is known.
func (m CategoryMap) Lookup(idOrName string) (domain.StatusCategory, bool) {
	c, ok := m[idOrName]
	return c, ok
}

// parseCategory accepts the two shapes the tracker API exposes: bare uppercase
// tokens (TODO / IN_PROGRESS / DONE) and nested statusCategory keys
// (new / indeterminate / done).
func parseCategory(raw string) (domain.StatusCategory, bool) {
	switch strings.TrimSpace(raw) {
	case "TODO", "new":
		return domain.CategoryBacklog, true
	case "IN_PROGRESS", "indeterminate":
		return domain.CategoryActive, true
	case "DONE", "done":
		return domain.CategoryDone, true
	}
	return 0, false
}
