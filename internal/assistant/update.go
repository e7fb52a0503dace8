package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// handleUpdateReply drives the confirmation state machine over a Pending
// Update entry. Only a yes (single candidate), an in-range number, or a
// no/cancel transitions the entry; anything else re-prompts and leaves
// the pending state untouched.
func (a *Assistant) handleUpdateReply(ctx context.Context, entry *notion.ConversationLogEntry, text, threadKey, channel string) error {
	if entry == nil {
		return a.messenger.PostReply(ctx, channel, threadKey, replyNoPendingUpdate)
	}
	if entry.Status != notion.StatusPendingUpdate {
		// A reply inside a settled conversation. Nothing is pending, so
		// there is nothing to confirm.
		a.logger.Debug(ctx, "thread reply on settled conversation",
			zap.String("status", string(entry.Status)))
		return nil
	}

	decoded, err := notion.DecodePayload(entry.Status, entry.Payload)
	if err != nil {
		return fmt.Errorf("decode pending update: %w", err)
	}
	pending, ok := decoded.(notion.PendingUpdatePayload)
	if !ok || len(pending.Candidates) == 0 {
		return fmt.Errorf("pending update entry %s has no candidates", entry.ID)
	}

	reply := normalizeReply(text)
	switch {
	case reply == "no" || reply == "cancel":
		status := notion.StatusCancelled
		empty := ""
		if err := a.log.Update(ctx, entry.ID, notion.LogPatch{Status: &status, Payload: &empty}); err != nil {
			return fmt.Errorf("cancel pending update: %w", err)
		}
		return a.messenger.PostReply(ctx, channel, threadKey, replyUpdateCancelled)

	case reply == "yes" && len(pending.Candidates) == 1:
		return a.applyUpdate(ctx, entry, pending, 0, threadKey, channel)

	default:
		if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(pending.Candidates) {
			return a.applyUpdate(ctx, entry, pending, n-1, threadKey, channel)
		}
		// Invalid reply. Re-prompt without touching the entry.
		return a.messenger.PostReply(ctx, channel, threadKey, replyRepromptUpdate(len(pending.Candidates)))
	}
}

// applyUpdate issues the field change against the chosen candidate and
// settles the log entry as Updated with the chosen record's id.
func (a *Assistant) applyUpdate(ctx context.Context, entry *notion.ConversationLogEntry, pending notion.PendingUpdatePayload, idx int, threadKey, channel string) error {
	chosen := pending.Candidates[idx]

	if err := a.store.UpdateField(ctx, chosen.ID, string(pending.Field), pending.Value); err != nil {
		return fmt.Errorf("apply field update: %w", err)
	}

	status := notion.StatusUpdated
	payload, err := notion.EncodePayload(status, notion.FiledPayload{RecordID: chosen.ID})
	if err != nil {
		return err
	}
	if err := a.log.Update(ctx, entry.ID, notion.LogPatch{Status: &status, Payload: &payload}); err != nil {
		return fmt.Errorf("settle pending update: %w", err)
	}

	a.logger.Info(ctx, "record updated",
		zap.String("record_id", chosen.ID),
		zap.String("field", string(pending.Field)))
	return a.messenger.PostReply(ctx, channel, threadKey, replyUpdateApplied(chosen.Title, pending.Field, pending.Value))
}

// normalizeReply lowercases a reply and strips punctuation so "Yes!" and
// "2." confirm like "yes" and "2".
func normalizeReply(text string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(text)), ".,!? ")
}
