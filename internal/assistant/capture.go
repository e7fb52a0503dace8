package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// maxQueryItems caps how many items a query reply lists per category.
const maxQueryItems = 10

// maxUpdateCandidates caps the update-confirmation pick list. The stored
// candidate snapshot is capped to the same length so numeric replies
// always match what the user saw.
const maxUpdateCandidates = 5

// handleCapture runs a fresh text capture through classify and then one
// of the three intent flows. The due-date resolver's answer beats the
// classifier's own date extraction when both produce one.
func (a *Assistant) handleCapture(ctx context.Context, text, ts, channel string) error {
	result, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify capture: %w", err)
	}
	if resolved := a.resolver.Resolve(text); resolved != "" {
		result.Data.DueDate = resolved
	}

	a.logger.Debug(ctx, "capture classified",
		zap.String("action", string(result.Action)),
		zap.String("destination", string(result.Destination)),
		zap.Float64("confidence", result.Confidence))

	switch result.Action {
	case classify.ActionQuery:
		return a.handleQuery(ctx, result, ts, channel)
	case classify.ActionUpdate:
		return a.handleUpdateSearch(ctx, result, text, ts, channel)
	default:
		return a.handleCreate(ctx, result, text, ts, channel)
	}
}

// handleCreate files the capture or, below the confidence gate, logs it
// for review and asks for a fix.
func (a *Assistant) handleCreate(ctx context.Context, result classify.Result, text, ts, channel string) error {
	if result.Confidence < a.threshold {
		_, err := a.log.Append(ctx, notion.ConversationLogEntry{
			OriginalText: text,
			Category:     result.Destination,
			Confidence:   result.Confidence,
			ThreadKey:    ts,
			Status:       notion.StatusNeedsReview,
		})
		if err != nil {
			return fmt.Errorf("log needs-review entry: %w", err)
		}
		return a.messenger.PostReply(ctx, channel, ts, replyLowConfidence(result.Destination, result.Confidence))
	}

	recordID, err := a.store.CreateRecord(ctx, result.Destination, notion.RecordFieldsFromClassification(result.Data))
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	payload, err := notion.EncodePayload(notion.StatusFiled, notion.FiledPayload{RecordID: recordID})
	if err != nil {
		return err
	}
	_, err = a.log.Append(ctx, notion.ConversationLogEntry{
		OriginalText: text,
		Category:     result.Destination,
		Confidence:   result.Confidence,
		ThreadKey:    ts,
		Status:       notion.StatusFiled,
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("log filed entry: %w", err)
	}

	return a.messenger.PostReply(ctx, channel, ts, replyFiled(result.Destination, result.Data))
}

// handleQuery answers a read-only question about the lists. Tag queries
// beat database queries; category fetches run concurrently.
func (a *Assistant) handleQuery(ctx context.Context, result classify.Result, ts, channel string) error {
	spec := result.Query
	if spec == nil {
		spec = &classify.QuerySpec{Database: "all", Filter: classify.FilterAllActive}
	}

	var grouped map[category.Category][]notion.Item
	if spec.Tag != "" {
		items, err := a.store.GetItemsByTag(ctx, spec.Tag)
		if err != nil {
			return fmt.Errorf("query by tag: %w", err)
		}
		grouped = groupByCategory(items)
	} else {
		cats := category.All
		if c, err := category.Parse(spec.Database); err == nil {
			cats = []category.Category{c}
		}
		var err error
		grouped, err = a.fetchActive(ctx, cats)
		if err != nil {
			return fmt.Errorf("query active: %w", err)
		}
		for c, items := range grouped {
			grouped[c] = filterItems(items, spec.Filter, a.resolver.Today())
		}
	}

	return a.messenger.PostReply(ctx, channel, ts, formatQueryReply(grouped))
}

// fetchActive pulls active items for each category concurrently and joins
// the results.
func (a *Assistant) fetchActive(ctx context.Context, cats []category.Category) (map[category.Category][]notion.Item, error) {
	grouped := make(map[category.Category][]notion.Item, len(cats))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range cats {
		g.Go(func() error {
			items, err := a.store.QueryActive(gctx, cat)
			if err != nil {
				return err
			}
			mu.Lock()
			grouped[cat] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grouped, nil
}

func groupByCategory(items []notion.Item) map[category.Category][]notion.Item {
	grouped := map[category.Category][]notion.Item{}
	for _, item := range items {
		grouped[item.Database] = append(grouped[item.Database], item)
	}
	return grouped
}

// filterItems applies a query filter to an active snapshot. "Done" items
// never reach here; QueryActive already excludes them.
func filterItems(items []notion.Item, filter classify.QueryFilter, today string) []notion.Item {
	var out []notion.Item
	for _, item := range items {
		switch filter {
		case classify.FilterDueToday:
			if item.DueDate == today {
				out = append(out, item)
			}
		case classify.FilterOverdue:
			if item.DueDate != "" && item.DueDate < today {
				out = append(out, item)
			}
		case classify.FilterHighPriority:
			if item.Priority == 1 {
				out = append(out, item)
			}
		default:
			out = append(out, item)
		}
	}
	return out
}

func formatQueryReply(grouped map[category.Category][]notion.Item) string {
	var b strings.Builder
	for _, cat := range category.All {
		items := grouped[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "*%s* (%d):\n", cat.Schema().Label, len(items))
		for i, item := range items {
			if i == maxQueryItems {
				break
			}
			b.WriteString("• " + item.DisplayTitle())
			if item.DueDate != "" {
				fmt.Fprintf(&b, " (due: %s)", item.DueDate)
			}
			if item.Priority != 0 {
				fmt.Fprintf(&b, " [P%d]", item.Priority)
			}
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		return replyNoItems
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleUpdateSearch finds candidate records for an update intent and
// parks the conversation as Pending Update until the user confirms.
func (a *Assistant) handleUpdateSearch(ctx context.Context, result classify.Result, text, ts, channel string) error {
	spec := result.Update
	if spec == nil || strings.TrimSpace(spec.SearchQuery) == "" || !spec.Field.Valid() {
		return a.messenger.PostReply(ctx, channel, ts,
			"I couldn't work out what to update. Tell me the item and the change, e.g. \"mark the boiler task done\".")
	}

	candidates, err := a.searchCandidates(ctx, spec.SearchQuery)
	if err != nil {
		return fmt.Errorf("search candidates: %w", err)
	}
	if len(candidates) == 0 {
		return a.messenger.PostReply(ctx, channel, ts, replyNoMatches(spec.SearchQuery))
	}
	if len(candidates) > maxUpdateCandidates {
		candidates = candidates[:maxUpdateCandidates]
	}

	payload, err := notion.EncodePayload(notion.StatusPendingUpdate, notion.PendingUpdatePayload{
		Candidates: candidates,
		Field:      spec.Field,
		Value:      spec.Value,
	})
	if err != nil {
		return err
	}
	_, err = a.log.Append(ctx, notion.ConversationLogEntry{
		OriginalText: text,
		Category:     result.Destination,
		Confidence:   result.Confidence,
		ThreadKey:    ts,
		Status:       notion.StatusPendingUpdate,
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("log pending update: %w", err)
	}

	if len(candidates) == 1 {
		return a.messenger.PostReply(ctx, channel, ts, replyConfirmSingle(candidates[0], spec.Field, spec.Value))
	}
	return a.messenger.PostReply(ctx, channel, ts, replyConfirmMultiple(candidates, spec.Field, spec.Value))
}

// searchCandidates looks up the full query string plus, for multi-word
// queries, each significant word on its own, de-duplicated by record id.
func (a *Assistant) searchCandidates(ctx context.Context, query string) ([]notion.Candidate, error) {
	terms := []string{query}
	if words := significantWords(query); len(words) > 1 {
		terms = append(terms, words...)
	}

	seen := map[string]bool{}
	var candidates []notion.Candidate
	for _, term := range terms {
		found, err := a.store.SearchItems(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "task": true, "item": true, "one": true, "about": true,
}

// significantWords splits a query into the words worth searching on their
// own: at least three letters and not a stop word.
func significantWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?'\"")
		if len(w) < 3 || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}
