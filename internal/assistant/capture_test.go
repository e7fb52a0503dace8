package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

func TestCaptureHighConfidenceFiles(t *testing.T) {
	f := newFixture(t)
	f.classifier.results["order new filters"] = classify.Result{
		Action:      classify.ActionCreate,
		Destination: category.Tasks,
		Confidence:  0.93,
		Data:        classify.Fields{Title: "Order new filters"},
	}

	err := f.assistant.handleCapture(context.Background(), "order new filters", "1725100000.000100", testInboxChannel)
	require.NoError(t, err)

	require.Len(t, f.store.created, 1)
	assert.Equal(t, category.Tasks, f.store.created[0].Category)

	entry := f.log.entryByThread("1725100000.000100")
	require.NotNil(t, entry)
	assert.Equal(t, notion.StatusFiled, entry.Status)
	assert.Equal(t, "rec-1", entry.Payload)

	reply := f.messenger.last()
	assert.Equal(t, "1725100000.000100", reply.ThreadKey)
	assert.Contains(t, reply.Text, "✓ Filed to *tasks*: Order new filters")
	assert.Contains(t, reply.Text, "Reply `fix: <category>` if wrong.")
}

func TestCaptureLowConfidenceNeedsReview(t *testing.T) {
	f := newFixture(t)
	f.classifier.results["hmm that thing"] = classify.Result{
		Action:      classify.ActionCreate,
		Destination: category.Work,
		Confidence:  0.4,
		Data:        classify.Fields{Title: "That thing"},
	}

	err := f.assistant.handleCapture(context.Background(), "hmm that thing", "ts-1", testInboxChannel)
	require.NoError(t, err)

	// Below the gate: no record, one Needs Review entry.
	assert.Empty(t, f.store.created)
	entry := f.log.entryByThread("ts-1")
	require.NotNil(t, entry)
	assert.Equal(t, notion.StatusNeedsReview, entry.Status)

	assert.Contains(t, f.messenger.last().Text, "I'm not confident about this one (40%)")
	assert.Contains(t, f.messenger.last().Text, "*work*")
}

func TestCaptureResolverOverridesClassifierDate(t *testing.T) {
	f := newFixture(t)
	// Classifier got the date wrong; the resolver's tomorrow must win.
	f.classifier.results["pay the gas bill tomorrow, urgent"] = classify.Result{
		Action:      classify.ActionCreate,
		Destination: category.Admin,
		Confidence:  0.95,
		Data: classify.Fields{
			Title:    "Pay the gas bill",
			Category: "Bills",
			Priority: 1,
			DueDate:  "2026-01-01",
		},
	}

	err := f.assistant.handleCapture(context.Background(), "pay the gas bill tomorrow, urgent", "ts-2", testInboxChannel)
	require.NoError(t, err)

	require.Len(t, f.store.created, 1)
	created := f.store.created[0]
	assert.Equal(t, category.Admin, created.Category)
	assert.Equal(t, "2026-09-01", created.Fields.DueDate)
	assert.Equal(t, 1, created.Fields.Priority)
	assert.Equal(t, notion.StatusFiled, f.log.entryByThread("ts-2").Status)

	reply := f.messenger.last().Text
	assert.Contains(t, reply, "(due: 2026-09-01)")
	assert.Contains(t, reply, "[P1]")
}

func TestCaptureAppendsClarificationQuestion(t *testing.T) {
	f := newFixture(t)
	f.classifier.results["book the thing with sam"] = classify.Result{
		Action:      classify.ActionCreate,
		Destination: category.People,
		Confidence:  0.8,
		Data: classify.Fields{
			Title:                 "Book with Sam",
			PersonName:            "Sam",
			NeedsClarification:    true,
			ClarificationQuestion: "Which Sam did you mean?",
		},
	}

	err := f.assistant.handleCapture(context.Background(), "book the thing with sam", "ts-3", testInboxChannel)
	require.NoError(t, err)
	assert.Contains(t, f.messenger.last().Text, "❓ Which Sam did you mean?")
}

func TestCaptureQueryByFilter(t *testing.T) {
	f := newFixture(t)
	f.store.active[category.Tasks] = []notion.Item{
		{ID: "a", Database: category.Tasks, Title: "Due today", DueDate: "2026-08-31"},
		{ID: "b", Database: category.Tasks, Title: "Due later", DueDate: "2026-09-10"},
	}
	f.classifier.results["what's due today?"] = classify.Result{
		Action:      classify.ActionQuery,
		Destination: category.Tasks,
		Confidence:  0.9,
		Query:       &classify.QuerySpec{Database: "tasks", Filter: classify.FilterDueToday},
	}

	err := f.assistant.handleCapture(context.Background(), "what's due today?", "ts-4", testInboxChannel)
	require.NoError(t, err)

	reply := f.messenger.last().Text
	assert.Contains(t, reply, "Due today")
	assert.NotContains(t, reply, "Due later")
	// Queries never write.
	assert.Zero(t, f.log.count())
	assert.Empty(t, f.store.created)
}

func TestCaptureQueryNoItems(t *testing.T) {
	f := newFixture(t)
	f.classifier.results["what's overdue?"] = classify.Result{
		Action: classify.ActionQuery,
		Query:  &classify.QuerySpec{Database: "all", Filter: classify.FilterOverdue},
	}

	err := f.assistant.handleCapture(context.Background(), "what's overdue?", "ts-5", testInboxChannel)
	require.NoError(t, err)
	assert.Equal(t, replyNoItems, f.messenger.last().Text)
}

func TestCaptureQueryByTag(t *testing.T) {
	f := newFixture(t)
	f.store.byTag["phone"] = []notion.Item{
		{ID: "a", Database: category.Tasks, Title: "Call the bank"},
	}
	f.classifier.results["what's on my phone list?"] = classify.Result{
		Action: classify.ActionQuery,
		Query:  &classify.QuerySpec{Tag: "phone"},
	}

	err := f.assistant.handleCapture(context.Background(), "what's on my phone list?", "ts-6", testInboxChannel)
	require.NoError(t, err)
	assert.Contains(t, f.messenger.last().Text, "Call the bank")
}

func TestCaptureUpdateSearchSingleMatch(t *testing.T) {
	f := newFixture(t)
	f.store.searchResults["boiler"] = []notion.Candidate{
		{ID: "rec-9", Title: "Fix the boiler", Database: category.Tasks},
	}
	f.classifier.results["mark the boiler task done"] = classify.Result{
		Action:      classify.ActionUpdate,
		Destination: category.Tasks,
		Confidence:  0.9,
		Update:      &classify.UpdateSpec{SearchQuery: "boiler", Field: classify.FieldStatus, Value: "Done"},
	}

	err := f.assistant.handleCapture(context.Background(), "mark the boiler task done", "ts-7", testInboxChannel)
	require.NoError(t, err)

	entry := f.log.entryByThread("ts-7")
	require.NotNil(t, entry)
	assert.Equal(t, notion.StatusPendingUpdate, entry.Status)

	decoded, err := notion.DecodePayload(entry.Status, entry.Payload)
	require.NoError(t, err)
	pending := decoded.(notion.PendingUpdatePayload)
	require.Len(t, pending.Candidates, 1)
	assert.Equal(t, "rec-9", pending.Candidates[0].ID)

	assert.Contains(t, f.messenger.last().Text, "Reply *yes* or *no*")
	// Nothing is mutated until the user confirms.
	assert.Empty(t, f.store.fieldUpdates)
}

func TestCaptureUpdateSearchExpandsSignificantWords(t *testing.T) {
	f := newFixture(t)
	// The full phrase misses but an individual word hits; duplicate ids
	// collapse.
	f.store.searchResults["boiler service"] = nil
	f.store.searchResults["boiler"] = []notion.Candidate{
		{ID: "rec-1", Title: "Book boiler service", Database: category.Tasks},
	}
	f.store.searchResults["service"] = []notion.Candidate{
		{ID: "rec-1", Title: "Book boiler service", Database: category.Tasks},
		{ID: "rec-2", Title: "Car service", Database: category.Admin},
	}
	f.classifier.results["move the boiler service to friday"] = classify.Result{
		Action:      classify.ActionUpdate,
		Destination: category.Tasks,
		Confidence:  0.85,
		Update:      &classify.UpdateSpec{SearchQuery: "boiler service", Field: classify.FieldDueDate, Value: "2026-09-04"},
	}

	err := f.assistant.handleCapture(context.Background(), "move the boiler service to friday", "ts-8", testInboxChannel)
	require.NoError(t, err)

	entry := f.log.entryByThread("ts-8")
	decoded, err := notion.DecodePayload(entry.Status, entry.Payload)
	require.NoError(t, err)
	pending := decoded.(notion.PendingUpdatePayload)
	assert.Len(t, pending.Candidates, 2)
	assert.Contains(t, f.messenger.last().Text, "1. ")
	assert.Contains(t, f.messenger.last().Text, "2. ")
}

func TestCaptureUpdateSearchNoMatches(t *testing.T) {
	f := newFixture(t)
	f.classifier.results["mark the zeppelin done"] = classify.Result{
		Action: classify.ActionUpdate,
		Update: &classify.UpdateSpec{SearchQuery: "zeppelin", Field: classify.FieldStatus, Value: "Done"},
	}

	err := f.assistant.handleCapture(context.Background(), "mark the zeppelin done", "ts-9", testInboxChannel)
	require.NoError(t, err)

	assert.Contains(t, f.messenger.last().Text, "couldn't find anything matching")
	assert.Zero(t, f.log.count())
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"boiler", "service"}, significantWords("the boiler service"))
	assert.Empty(t, significantWords("do it"))
	assert.Equal(t, []string{"dentist"}, significantWords("Dentist!"))
}
