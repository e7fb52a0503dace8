package digest

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// maxContextItems caps how many items per category reach the context
// block handed to the language model.
const maxContextItems = 10

// Snapshot is everything a digest is computed from, captured at one
// moment.
type Snapshot struct {
	Active    map[category.Category][]notion.Item
	Completed []notion.Item
	Today     string
}

func (s Snapshot) allActive() []notion.Item {
	var all []notion.Item
	for _, cat := range category.All {
		all = append(all, s.Active[cat]...)
	}
	return all
}

// Headers per digest persona, prepended at delivery.
var headers = map[classify.DigestKind]string{
	classify.DigestMorning: "☀️ *Morning Briefing*",
	classify.DigestEvening: "🌙 *Evening Review*",
	classify.DigestWeekly:  "📅 *Weekly Review*",
}

// Header returns the delivery header for a digest kind.
func Header(kind classify.DigestKind) string {
	return headers[kind]
}

func itemLine(item notion.Item) string {
	line := "- " + item.DisplayTitle()
	if item.DueDate != "" {
		line += fmt.Sprintf(" (due: %s)", item.DueDate)
	}
	if item.Priority != 0 {
		line += fmt.Sprintf(" [P%d]", item.Priority)
	}
	return line
}

// BuildSkeleton renders the deterministic digest body: a greeting for the
// persona, a tone line from the completed count, and the partitioned
// sections. This is the digest of record; elaboration only rephrases it.
func BuildSkeleton(kind classify.DigestKind, snap Snapshot) string {
	sections := Partition(snap.allActive(), snap.Today)

	var b strings.Builder
	b.WriteString(greeting(kind, len(snap.Completed)))
	b.WriteString("\n")

	writeSection := func(title string, items []notion.Item) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", title, len(items))
		for _, item := range items {
			b.WriteString(itemLine(item) + "\n")
		}
	}
	writeSection("Overdue", sections.Overdue)
	writeSection("Due today", sections.DueToday)
	writeSection("Upcoming priorities", sections.Upcoming)

	if len(sections.Overdue)+len(sections.DueToday)+len(sections.Upcoming) == 0 {
		b.WriteString("\nNothing scheduled or prioritized right now.\n")
	}
	if kind != classify.DigestMorning {
		writeSection("Completed", snap.Completed)
	}
	return strings.TrimRight(b.String(), "\n")
}

func greeting(kind classify.DigestKind, completed int) string {
	switch kind {
	case classify.DigestEvening:
		switch completed {
		case 0:
			return "A quiet day. Nothing marked done yet."
		case 1:
			return "You closed out 1 item today. Nice work."
		default:
			return fmt.Sprintf("You closed out %d items today. Nice work.", completed)
		}
	case classify.DigestWeekly:
		return "Your week at a glance."
	default:
		return "Here's the shape of your day."
	}
}

// BuildContext renders the per-category snapshot block the language model
// elaborates from, with counts and up to ten items per category.
func BuildContext(kind classify.DigestKind, snap Snapshot) string {
	var b strings.Builder
	for _, cat := range category.All {
		items := snap.Active[cat]
		fmt.Fprintf(&b, "%s (%d):\n", cat.Schema().Label, len(items))
		for i, item := range items {
			if i == maxContextItems {
				break
			}
			b.WriteString(itemLine(item) + "\n")
		}
		b.WriteString("\n")
	}
	completedLabel := "Completed today"
	if kind == classify.DigestWeekly {
		completedLabel = "Completed this week"
	}
	fmt.Fprintf(&b, "%s (%d):\n", completedLabel, len(snap.Completed))
	for i, item := range snap.Completed {
		if i == maxContextItems {
			break
		}
		b.WriteString(itemLine(item) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
