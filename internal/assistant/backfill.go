package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// tagKeywords maps a tag to the title substrings that imply it. Matching
// is case-insensitive; one title can earn several tags.
var tagKeywords = map[string][]string{
	"phone":     {"call", "phone", "ring", "callback"},
	"laptop":    {"email", "message", "dm", "online", "computer", "laptop"},
	"groceries": {"groceries", "grocery", "food", "milk", "supermarket"},
	"home":      {"home", "diy", "clean", "household", "house"},
	"office":    {"office"},
	"errands":   {"errands", "pick up", "collect", "bank"},
}

// tagOrder keeps inferred tags in a stable order for previews and tests.
var tagOrder = []string{"phone", "laptop", "groceries", "home", "office", "errands"}

// inferTags returns the tags implied by a title, in stable order.
func inferTags(title string) []string {
	lower := strings.ToLower(title)
	var tags []string
	for _, tag := range tagOrder {
		for _, kw := range tagKeywords[tag] {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// BackfillStats summarizes a direct (non-conversational) backfill run.
type BackfillStats struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// backfillCandidates scans all active items and returns the untagged ones
// whose titles imply at least one tag, plus how many items were passed
// over.
func (a *Assistant) backfillCandidates(ctx context.Context) (items []notion.BackfillItem, skipped int, err error) {
	grouped, err := a.fetchActive(ctx, category.All)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch active items: %w", err)
	}
	for _, cat := range category.All {
		vocab := a.tagVocabulary(ctx, cat)
		for _, item := range grouped[cat] {
			title := item.DisplayTitle()
			if len(item.Tags) > 0 || title == "" {
				skipped++
				continue
			}
			tags := knownTags(inferTags(title), vocab)
			if len(tags) == 0 {
				skipped++
				continue
			}
			items = append(items, notion.BackfillItem{ID: item.ID, Title: title, Tags: tags})
		}
	}
	return items, skipped, nil
}

// tagVocabulary fetches the lowercased tag options configured on a
// category's database. A nil set means the options could not be read, or
// none are configured yet, and inference proceeds unfiltered.
func (a *Assistant) tagVocabulary(ctx context.Context, cat category.Category) map[string]bool {
	names, err := a.store.TagVocabulary(ctx, cat)
	if err != nil {
		a.logger.Debug(ctx, "tag vocabulary lookup failed",
			zap.String("category", string(cat)), zap.Error(err))
		return nil
	}
	if len(names) == 0 {
		return nil
	}
	vocab := make(map[string]bool, len(names))
	for _, name := range names {
		vocab[strings.ToLower(name)] = true
	}
	return vocab
}

// knownTags keeps the inferred tags that already exist in the database's
// vocabulary so a backfill never invents new select options.
func knownTags(tags []string, vocab map[string]bool) []string {
	if vocab == nil {
		return tags
	}
	var kept []string
	for _, tag := range tags {
		if vocab[tag] {
			kept = append(kept, tag)
		}
	}
	return kept
}

// PreviewBackfill posts a tag-backfill preview to the channel and parks
// the conversation as Pending Backfill, anchored at the preview message.
func (a *Assistant) PreviewBackfill(ctx context.Context, channel string) error {
	items, _, err := a.backfillCandidates(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, err := a.messenger.PostMessage(ctx, channel, "All active items already have tags. Nothing to backfill.")
		return err
	}

	ts, err := a.messenger.PostMessage(ctx, channel, replyBackfillPreview(items, false))
	if err != nil {
		return fmt.Errorf("post backfill preview: %w", err)
	}

	payload, err := notion.EncodePayload(notion.StatusPendingBackfill, notion.PendingBackfillPayload{Items: items})
	if err != nil {
		return err
	}
	_, err = a.log.Append(ctx, notion.ConversationLogEntry{
		OriginalText: "tag backfill preview",
		ThreadKey:    ts,
		Status:       notion.StatusPendingBackfill,
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("log backfill preview: %w", err)
	}
	return nil
}

// ApplyBackfill tags every untagged active item directly, without a
// confirmation conversation. Per-item failures are counted, not fatal.
func (a *Assistant) ApplyBackfill(ctx context.Context) (BackfillStats, error) {
	items, skipped, err := a.backfillCandidates(ctx)
	if err != nil {
		return BackfillStats{}, err
	}
	stats := a.applyTags(ctx, items)
	stats.Skipped += skipped
	return stats, nil
}

func (a *Assistant) applyTags(ctx context.Context, items []notion.BackfillItem) BackfillStats {
	var stats BackfillStats
	for _, item := range items {
		if err := a.store.UpdateTags(ctx, item.ID, item.Tags); err != nil {
			a.logger.Warn(ctx, "tag update failed",
				zap.String("item_id", item.ID), zap.Error(err))
			stats.Errors++
			continue
		}
		stats.Updated++
	}
	return stats
}

// exclusionRe matches replies like: yes except don't tag 'call the bank'.
var exclusionRe = regexp.MustCompile(`(?i)^\s*yes,?\s+except\s+(?:don.?t\s+tag\s+)?['"]?(.+?)['"]?\s*$`)

// handleBackfillReply drives the backfill confirmation loop. Affirmative
// applies the whole candidate list; negative cancels; an exclusion phrase
// re-posts a revised preview as a fresh pending entry and cancels the
// superseded one.
func (a *Assistant) handleBackfillReply(ctx context.Context, entry *notion.ConversationLogEntry, text, channel string) error {
	decoded, err := notion.DecodePayload(entry.Status, entry.Payload)
	if err != nil {
		return fmt.Errorf("decode pending backfill: %w", err)
	}
	pending, ok := decoded.(notion.PendingBackfillPayload)
	if !ok || len(pending.Items) == 0 {
		return fmt.Errorf("pending backfill entry %s has no items", entry.ID)
	}

	if m := exclusionRe.FindStringSubmatch(text); m != nil {
		return a.reviseBackfill(ctx, entry, pending, m[1], channel)
	}

	switch normalizeReply(text) {
	case "yes", "y", "apply", "confirm", "ok":
		stats := a.applyTags(ctx, pending.Items)
		status := notion.StatusBackfillApplied
		if err := a.log.Update(ctx, entry.ID, notion.LogPatch{Status: &status}); err != nil {
			return fmt.Errorf("settle backfill: %w", err)
		}
		a.logger.Info(ctx, "backfill applied",
			zap.Int("updated", stats.Updated), zap.Int("errors", stats.Errors))
		return a.messenger.PostReply(ctx, channel, entry.ThreadKey, replyBackfillApplied(stats.Updated, stats.Errors))

	case "no", "cancel":
		status := notion.StatusCancelled
		empty := ""
		if err := a.log.Update(ctx, entry.ID, notion.LogPatch{Status: &status, Payload: &empty}); err != nil {
			return fmt.Errorf("cancel backfill: %w", err)
		}
		return a.messenger.PostReply(ctx, channel, entry.ThreadKey, replyBackfillCancelled)

	default:
		return a.messenger.PostReply(ctx, channel, entry.ThreadKey, replyRepromptBackfill())
	}
}

// reviseBackfill drops the named candidate, re-posts the preview, and
// re-logs the conversation as Pending Backfill Revised. The superseded
// entry is marked Cancelled so at most one backfill conversation is
// pending per revision chain.
func (a *Assistant) reviseBackfill(ctx context.Context, entry *notion.ConversationLogEntry, pending notion.PendingBackfillPayload, excluded, channel string) error {
	needle := strings.ToLower(strings.TrimSpace(excluded))
	var remaining []notion.BackfillItem
	removed := false
	for _, item := range pending.Items {
		if !removed && strings.Contains(strings.ToLower(item.Title), needle) {
			removed = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !removed {
		return a.messenger.PostReply(ctx, channel, entry.ThreadKey,
			fmt.Sprintf("No pending item matches %q. %s", excluded, replyRepromptBackfill()))
	}

	cancelled := notion.StatusCancelled
	empty := ""
	if err := a.log.Update(ctx, entry.ID, notion.LogPatch{Status: &cancelled, Payload: &empty}); err != nil {
		return fmt.Errorf("supersede backfill entry: %w", err)
	}

	if len(remaining) == 0 {
		return a.messenger.PostReply(ctx, channel, entry.ThreadKey,
			"Nothing left to tag. Backfill cancelled.")
	}

	ts, err := a.messenger.PostMessage(ctx, channel, replyBackfillPreview(remaining, true))
	if err != nil {
		return fmt.Errorf("post revised preview: %w", err)
	}
	payload, err := notion.EncodePayload(notion.StatusPendingBackfillRevised, notion.PendingBackfillPayload{Items: remaining})
	if err != nil {
		return err
	}
	_, err = a.log.Append(ctx, notion.ConversationLogEntry{
		OriginalText: "tag backfill preview (revised)",
		ThreadKey:    ts,
		Status:       notion.StatusPendingBackfillRevised,
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("log revised backfill: %w", err)
	}
	return nil
}
