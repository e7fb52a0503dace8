// Package notion adapts the Notion REST API into the two narrow surfaces
// the assistant core needs: a record store for the four category databases
// and a conversation log for multi-turn state. The serving runtime holds no
// state between requests, so every pending conversation lives here.
package notion

import (
	"errors"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
)

// ErrNotFound is returned when a referenced page or log entry does not
// exist.
var ErrNotFound = errors.New("notion: not found")

// Item is a record read from one of the category databases.
type Item struct {
	ID       string
	Database category.Category
	Title    string
	Status   string
	DueDate  string // YYYY-MM-DD, empty when unset
	Priority int    // 1-3, 0 when unset
	Tags     []string
	Project  string // work only
	Kind     string // admin only (Appointments, Bills, Orders)
	FollowUp string // people only
}

// Candidate is the lightweight snapshot taken at search time. Update
// confirmation acts on this snapshot, not a live re-query, so a candidate
// can go stale if the record changes underneath it.
type Candidate struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Database category.Category `json:"database"`
	Priority int               `json:"priority,omitempty"`
	DueDate  string            `json:"due_date,omitempty"`
}

// RecordFields carries the property values for a new record. Which fields
// apply depends on the destination category's schema.
type RecordFields struct {
	Title      string
	Project    string
	Kind       string
	PersonName string
	FollowUp   string
	DueDate    string
	Priority   int
	Notes      string
	Tags       []string
}

// RecordFieldsFromClassification maps extracted classifier fields onto
// record properties.
func RecordFieldsFromClassification(f classify.Fields) RecordFields {
	return RecordFields{
		Title:      f.Title,
		Project:    f.Project,
		Kind:       f.Category,
		PersonName: f.PersonName,
		FollowUp:   f.FollowUp,
		DueDate:    f.DueDate,
		Priority:   f.Priority,
		Notes:      f.Notes,
	}
}

// Status is the lifecycle state of a conversation log entry. Terminal
// states end a conversation; pending states mean the assistant is waiting
// for a threaded reply.
type Status string

const (
	StatusFiled                  Status = "Filed"
	StatusNeedsReview            Status = "Needs Review"
	StatusFixed                  Status = "Fixed"
	StatusPendingUpdate          Status = "Pending Update"
	StatusUpdated                Status = "Updated"
	StatusCancelled              Status = "Cancelled"
	StatusPendingBackfill        Status = "Pending Backfill"
	StatusPendingBackfillRevised Status = "Pending Backfill Revised"
	StatusBackfillApplied        Status = "Backfill Applied"
)

// Pending reports whether the entry is waiting on a user reply.
func (s Status) Pending() bool {
	switch s {
	case StatusNeedsReview, StatusPendingUpdate, StatusPendingBackfill, StatusPendingBackfillRevised:
		return true
	}
	return false
}

// Backfill reports whether the entry belongs to a tag-backfill
// conversation.
func (s Status) Backfill() bool {
	return s == StatusPendingBackfill || s == StatusPendingBackfillRevised
}

// ConversationLogEntry is one row of the append-only conversation log.
// The payload slot's meaning is determined solely by Status; decode it
// with DecodePayload rather than reading it directly.
type ConversationLogEntry struct {
	ID           string // page id, set on read
	OriginalText string
	Category     category.Category
	Confidence   float64
	ThreadKey    string
	Status       Status
	Payload      string
}

// LogPatch is a partial update to a log entry. Nil fields are left
// untouched.
type LogPatch struct {
	Category *category.Category
	Status   *Status
	Payload  *string
}
