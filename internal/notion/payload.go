package notion

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/secondbrain/internal/classify"
)

// Payload is the decoded form of a log entry's payload slot. Exactly one
// concrete type is valid per status; the codec below enforces the pairing
// so handlers never interpret the slot under the wrong status.
type Payload interface {
	validFor(s Status) bool
}

// FiledPayload carries the created record's id once a capture, fix,
// update, or backfill has been applied.
type FiledPayload struct {
	RecordID string
}

func (FiledPayload) validFor(s Status) bool {
	switch s {
	case StatusFiled, StatusFixed, StatusUpdated:
		return true
	}
	return false
}

// PendingUpdatePayload holds the candidate snapshot and the requested
// field change while the assistant waits for a confirmation reply.
type PendingUpdatePayload struct {
	Candidates []Candidate          `json:"candidates"`
	Field      classify.UpdateField `json:"field"`
	Value      string               `json:"value"`
}

func (PendingUpdatePayload) validFor(s Status) bool {
	return s == StatusPendingUpdate
}

// BackfillItem is one untagged record with its inferred tags.
type BackfillItem struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// PendingBackfillPayload holds the backfill candidate list across the
// preview/revision loop, and the applied list once the backfill lands.
type PendingBackfillPayload struct {
	Items []BackfillItem `json:"items"`
}

func (PendingBackfillPayload) validFor(s Status) bool {
	return s.Backfill() || s == StatusBackfillApplied
}

// EncodePayload serializes p for storage. Filed-style payloads store the
// bare record id; pending payloads store a JSON bundle.
func EncodePayload(s Status, p Payload) (string, error) {
	if p == nil {
		return "", nil
	}
	if !p.validFor(s) {
		return "", fmt.Errorf("notion: payload %T not valid for status %q", p, s)
	}
	switch v := p.(type) {
	case FiledPayload:
		return v.RecordID, nil
	case PendingUpdatePayload, PendingBackfillPayload:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("notion: encode payload: %w", err)
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("notion: unknown payload type %T", p)
	}
}

// DecodePayload deserializes a log entry's payload slot according to its
// status. Statuses without a payload (Needs Review, Cancelled) decode to
// nil.
func DecodePayload(s Status, raw string) (Payload, error) {
	switch s {
	case StatusFiled, StatusFixed, StatusUpdated:
		return FiledPayload{RecordID: raw}, nil
	case StatusPendingUpdate:
		var p PendingUpdatePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("notion: decode pending update payload: %w", err)
		}
		return p, nil
	case StatusPendingBackfill, StatusPendingBackfillRevised, StatusBackfillApplied:
		var p PendingBackfillPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("notion: decode pending backfill payload: %w", err)
		}
		return p, nil
	case StatusNeedsReview, StatusCancelled:
		return nil, nil
	default:
		return nil, fmt.Errorf("notion: unknown status %q", s)
	}
}
