package analytics

import (
	"github.com/paulera/aging-wip-ui/internal/domain"
)

// ReconcileColumns merges live issues (grouped by current status name),
// computed SLEs (keyed by status id) and an optional explicit ordering of
// status names into the board's column list.
//
// Explicitly ordered statuses always get a column, even with zero live
// issues, so the board shows every configured stage; an ordered name that
// cannot be resolved to a status id simply yields a column without SLE data.
// Columns not named in the ordering sort after all named ones, in the order
// the live statuses were first encountered.
func ReconcileColumns(items []domain.BoardItem, statusIDs map[string]string, sles SLEMap, explicitOrder []string) []domain.Column {
	grouped := map[string][]domain.BoardItem{}
	var encounter []string
	for _, it := range items {
		if _, seen := grouped[it.Status]; !seen {
			encounter = append(encounter, it.Status)
		}
		grouped[it.Status] = append(grouped[it.Status], it)
	}

	named := map[string]bool{}
	var columns []domain.Column
	for _, name := range explicitOrder {
		named[name] = true
		columns = append(columns, buildColumn(name, grouped[name], statusIDs, sles))
	}
	for _, name := range encounter {
		if named[name] {
			continue
		}
		columns = append(columns, buildColumn(name, grouped[name], statusIDs, sles))
	}
	for i := range columns {
		columns[i].Order = i + 1
	}
	return columns
}

func buildColumn(name string, items []domain.BoardItem, statusIDs map[string]string, sles SLEMap) domain.Column {
	col := domain.Column{Name: name, Items: items}
	if col.Items == nil {
		col.Items = []domain.BoardItem{}
	}
	if id, ok := statusIDs[name]; ok {
		col.SLE = sles[id]
	}
	return col
}
