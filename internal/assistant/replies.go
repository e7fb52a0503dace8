package assistant

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// Reply text lives here so the handlers read as state machines and the
// wording stays consistent across them.

const (
	replyUpdateCancelled   = "Update cancelled."
	replyBackfillCancelled = "Backfill cancelled. No tags were changed."
	replyNoItems           = "No items found."
	replyApology           = "❌ Sorry, something went wrong. Please try again."
	replyNoOriginal        = "Couldn't find the original message to fix."
	replyNoPendingUpdate   = "Couldn't find a pending update for this thread."
)

func replyInvalidCategory() string {
	return "Invalid category. Use one of: " + strings.Join(category.Names(), ", ")
}

func replyLowConfidence(cat category.Category, confidence float64) string {
	return fmt.Sprintf(
		"I'm not confident about this one (%d%%). I think it's: *%s*. Reply with `fix: <category>` if wrong.\nCategories: %s",
		int(confidence*100+0.5), cat, strings.Join(category.Names(), ", "))
}

func replyFiled(cat category.Category, data classify.Fields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Filed to *%s*: %s", cat, data.Title)
	if data.DueDate != "" {
		fmt.Fprintf(&b, " (due: %s)", data.DueDate)
	}
	if data.Priority != 0 {
		fmt.Fprintf(&b, " [P%d]", data.Priority)
	}
	if data.NeedsClarification && data.ClarificationQuestion != "" {
		b.WriteString("\n❓ " + data.ClarificationQuestion)
	}
	b.WriteString("\nReply `fix: <category>` if wrong.")
	return b.String()
}

func replyFixed(cat category.Category, title string) string {
	return fmt.Sprintf("✓ Fixed! Moved to *%s*: %s", cat, title)
}

func candidateLine(c notion.Candidate) string {
	line := fmt.Sprintf("*%s* (%s)", c.Title, c.Database)
	if c.DueDate != "" {
		line += fmt.Sprintf(" due %s", c.DueDate)
	}
	return line
}

func replyConfirmSingle(c notion.Candidate, field classify.UpdateField, value string) string {
	return fmt.Sprintf("I found %s. Change %s to *%s*? Reply *yes* or *no*.",
		candidateLine(c), fieldLabel(field), valueLabel(field, value))
}

func replyConfirmMultiple(candidates []notion.Candidate, field classify.UpdateField, value string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d matches:\n", len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, candidateLine(c))
	}
	fmt.Fprintf(&b, "Reply with a number to change %s to *%s*, or *no* to cancel.",
		fieldLabel(field), valueLabel(field, value))
	return b.String()
}

func replyUpdateApplied(title string, field classify.UpdateField, value string) string {
	if field == classify.FieldDueDate && value == "remove" {
		return fmt.Sprintf("✓ Updated *%s*: due date removed", title)
	}
	return fmt.Sprintf("✓ Updated *%s*: %s → %s", title, fieldLabel(field), valueLabel(field, value))
}

func replyRepromptUpdate(candidateCount int) string {
	if candidateCount == 1 {
		return "Reply *yes* to confirm, or *no* to cancel."
	}
	return fmt.Sprintf("Reply with a number between 1 and %d, or *no* to cancel.", candidateCount)
}

func replyNoMatches(query string) string {
	return fmt.Sprintf("I couldn't find anything matching %q. Try rephrasing with a word from the item's title.", query)
}

func replyBackfillPreview(items []notion.BackfillItem, revised bool) string {
	var b strings.Builder
	if revised {
		b.WriteString("🏷️ Revised tag backfill preview:\n")
	} else {
		b.WriteString("🏷️ Tag backfill preview:\n")
	}
	for i, item := range items {
		fmt.Fprintf(&b, "%d. *%s* → %s\n", i+1, item.Title, strings.Join(item.Tags, ", "))
	}
	b.WriteString("Reply *yes* to apply, *no* to cancel, or `yes except don't tag 'X'` to drop one.")
	return b.String()
}

func replyBackfillApplied(updated, errors int) string {
	if errors == 0 {
		return fmt.Sprintf("✓ Tagged %d items.", updated)
	}
	return fmt.Sprintf("✓ Tagged %d items. %d failed and were left untouched.", updated, errors)
}

func replyRepromptBackfill() string {
	return "Reply *yes* to apply, *no* to cancel, or `yes except don't tag 'X'` to drop one."
}

func fieldLabel(field classify.UpdateField) string {
	switch field {
	case classify.FieldDueDate:
		return "due date"
	case classify.FieldPriority:
		return "priority"
	default:
		return "status"
	}
}

func valueLabel(field classify.UpdateField, value string) string {
	if field == classify.FieldPriority {
		return "P" + value
	}
	return value
}
