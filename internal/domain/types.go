package domain

import "time"

// StatusCategory is the coarse lifecycle bucket a workflow status belongs to.
type StatusCategory int

const (
	CategoryBacklog StatusCategory = iota
	CategoryActive
	CategoryDone
)

func (c StatusCategory) String() string {
	switch c {
	case CategoryBacklog:
		return "Backlog"
	case CategoryActive:
		return "Active"
	case CategoryDone:
		return "Done"
	}
	return "Unknown"
}

// StatusDef is one status definition from the tracker's status metadata endpoint.
// Category carries whichever shape the API delivered: a bare token like
// "IN_PROGRESS" or a nested object key like "indeterminate".
type StatusDef struct {
	ID       string
	Name     string
	Category string
}

// StatusRef identifies an issue's current status.
type StatusRef struct {
	ID   string
	Name string
}

// StatusChange is one atomic status transition recorded in an issue's changelog.
type StatusChange struct {
	At     time.Time
	FromID string
	ToID   string
}

// Issue is the engine's read-only view of one tracker issue. Changelog order is
// as delivered by the source API (normally newest first).
type Issue struct {
	Key       string
	Status    StatusRef
	CreatedAt time.Time
	Changelog []StatusChange
}

// TransitionRecord is emitted when an issue is observed leaving a status.
// AgeAtExit is the issue's overall age at the moment of exit, not the dwell
// time in that status alone.
type TransitionRecord struct {
	IssueKey  string
	ExitAt    time.Time
	AgeAtExit int
}

// Aging is the pair of day counts computed for one issue.
type Aging struct {
	TotalAge              int
	CurrentStateAge       int
	StartDate             string
	CurrentStateStartDate string
}

// BoardItem is one issue annotated with its aging fields, ready for rendering.
type BoardItem struct {
	Key                   string `json:"key"`
	Status                string `json:"status"`
	Age                   int    `json:"age"`
	AgeInCurrentState     int    `json:"age_in_current_state"`
	StartDate             string `json:"start_date"`
	CurrentStateStartDate string `json:"current_state_start_date"`
}

// Column is one board column. SLE is nil when no historical data survived
// windowing for the column's status.
type Column struct {
	Name  string      `json:"name"`
	Order int         `json:"order"`
	SLE   []int       `json:"sle"`
	Items []BoardItem `json:"items"`
}
