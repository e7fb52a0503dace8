// Package digest builds the scheduled and on-demand summaries. The
// partition and skeleton are pure and deterministic; the language model
// only ever decorates them, so every digest is reproducible without it.
package digest

import (
	"sort"

	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

// Sections is the partition of an active-item snapshot used by every
// digest variant.
type Sections struct {
	// Overdue items, due date ascending.
	Overdue []notion.Item
	// DueToday items, priority ascending with missing priority last.
	DueToday []notion.Item
	// Upcoming priority-bearing items, excluding anything already due
	// today or overdue.
	Upcoming []notion.Item
}

// Partition splits a snapshot of active items against today's date.
func Partition(items []notion.Item, today string) Sections {
	var s Sections
	for _, item := range items {
		switch {
		case item.DueDate != "" && item.DueDate < today:
			s.Overdue = append(s.Overdue, item)
		case item.DueDate == today:
			s.DueToday = append(s.DueToday, item)
		case item.Priority != 0:
			s.Upcoming = append(s.Upcoming, item)
		}
	}

	sort.SliceStable(s.Overdue, func(i, j int) bool {
		if s.Overdue[i].DueDate != s.Overdue[j].DueDate {
			return s.Overdue[i].DueDate < s.Overdue[j].DueDate
		}
		return s.Overdue[i].Title < s.Overdue[j].Title
	})
	sort.SliceStable(s.DueToday, func(i, j int) bool {
		pi, pj := priorityRank(s.DueToday[i].Priority), priorityRank(s.DueToday[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return s.DueToday[i].Title < s.DueToday[j].Title
	})
	sort.SliceStable(s.Upcoming, func(i, j int) bool {
		if s.Upcoming[i].Priority != s.Upcoming[j].Priority {
			return s.Upcoming[i].Priority < s.Upcoming[j].Priority
		}
		if s.Upcoming[i].DueDate != s.Upcoming[j].DueDate {
			return s.Upcoming[i].DueDate < s.Upcoming[j].DueDate
		}
		return s.Upcoming[i].Title < s.Upcoming[j].Title
	})
	return s
}

// priorityRank sorts a missing priority after every real one.
func priorityRank(p int) int {
	if p == 0 {
		return 1 << 30
	}
	return p
}
