package classify

import (
	"github.com/fyrsmithlabs/secondbrain/internal/category"
)

// Action is what the user wants done with a capture.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionQuery  Action = "query"
)

// UpdateField is the record field an update intent targets.
type UpdateField string

const (
	FieldStatus   UpdateField = "status"
	FieldDueDate  UpdateField = "due_date"
	FieldPriority UpdateField = "priority"
)

// Valid reports whether f is a supported update target.
func (f UpdateField) Valid() bool {
	switch f {
	case FieldStatus, FieldDueDate, FieldPriority:
		return true
	}
	return false
}

// Fields carries the structured record data extracted from a capture.
type Fields struct {
	Title                 string `json:"title"`
	Project               string `json:"project,omitempty"`
	Category              string `json:"category,omitempty"`
	PersonName            string `json:"person_name,omitempty"`
	FollowUp              string `json:"follow_up,omitempty"`
	DueDate               string `json:"due_date,omitempty"`
	Priority              int    `json:"priority,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	NeedsClarification    bool   `json:"needs_clarification,omitempty"`
	ClarificationQuestion string `json:"clarification_question,omitempty"`
}

// UpdateSpec describes an update intent: which records to find and what to
// change on the chosen one.
type UpdateSpec struct {
	SearchQuery string      `json:"search_query"`
	Field       UpdateField `json:"field"`
	Value       string      `json:"value"`
}

// QueryFilter narrows a query intent.
type QueryFilter string

const (
	FilterDueToday     QueryFilter = "due_today"
	FilterOverdue      QueryFilter = "overdue"
	FilterHighPriority QueryFilter = "high_priority"
	FilterAllActive    QueryFilter = "all_active"
)

// QuerySpec describes a query intent.
type QuerySpec struct {
	// Database is a category name or "all".
	Database string      `json:"database"`
	Filter   QueryFilter `json:"filter,omitempty"`
	// Tag, when set, filters by tag instead of database+filter.
	Tag string `json:"tag,omitempty"`
}

// Result is the structured intent the oracle extracted from free text.
type Result struct {
	Action      Action            `json:"action"`
	Destination category.Category `json:"destination"`
	Confidence  float64           `json:"confidence"`
	Data        Fields            `json:"data"`
	Update      *UpdateSpec       `json:"update,omitempty"`
	Query       *QuerySpec        `json:"query,omitempty"`
}

// DigestKind selects the elaboration persona for digests.
type DigestKind string

const (
	DigestMorning DigestKind = "morning"
	DigestEvening DigestKind = "evening"
	DigestWeekly  DigestKind = "weekly"
)
