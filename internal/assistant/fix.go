package assistant

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

var fixRe = regexp.MustCompile(`(?i)^\s*fix:\s*(\w+)`)

// handleFix re-files a logged capture under an explicitly named category.
// The original text is re-classified to regenerate structured fields, the
// destination is forced, and the existing log entry is overwritten rather
// than appended, so consecutive fixes keep exactly one entry per thread.
func (a *Assistant) handleFix(ctx context.Context, entry *notion.ConversationLogEntry, text, threadKey, channel string) error {
	m := fixRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	cat, err := category.Parse(m[1])
	if err != nil {
		return a.messenger.PostReply(ctx, channel, threadKey, replyInvalidCategory())
	}
	if entry == nil {
		return a.messenger.PostReply(ctx, channel, threadKey, replyNoOriginal)
	}

	result, err := a.classifier.Classify(ctx, entry.OriginalText)
	if err != nil {
		return fmt.Errorf("reclassify for fix: %w", err)
	}
	result.Destination = cat

	recordID, err := a.store.CreateRecord(ctx, cat, notion.RecordFieldsFromClassification(result.Data))
	if err != nil {
		return fmt.Errorf("create fixed record: %w", err)
	}

	status := notion.StatusFixed
	payload, err := notion.EncodePayload(status, notion.FiledPayload{RecordID: recordID})
	if err != nil {
		return err
	}
	if err := a.log.Update(ctx, entry.ID, notion.LogPatch{
		Category: &cat,
		Status:   &status,
		Payload:  &payload,
	}); err != nil {
		return fmt.Errorf("update log entry for fix: %w", err)
	}

	a.logger.Info(ctx, "capture refiled",
		zap.String("category", string(cat)), zap.String("record_id", recordID))
	return a.messenger.PostReply(ctx, channel, threadKey, replyFixed(cat, result.Data.Title))
}
