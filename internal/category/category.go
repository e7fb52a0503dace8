// Package category defines the closed set of record destinations and the
// per-destination record-store schema.
package category

import (
	"fmt"
	"strings"
)

// Category is a record destination. The set is closed; everything that
// varies per destination lives in the schema table below rather than in
// ad hoc branching at call sites.
type Category string

const (
	Tasks  Category = "tasks"
	Work   Category = "work"
	People Category = "people"
	Admin  Category = "admin"
)

// All lists every category in display order.
var All = []Category{Tasks, Work, People, Admin}

// Schema describes how a category's records are laid out in the backing
// store.
type Schema struct {
	// TitleProp is the name of the title property in the store.
	TitleProp string
	// DatabaseKey is the config key holding this category's database id.
	DatabaseKey string
	// Label is the human-facing name used in replies and digests.
	Label string
}

var schemas = map[Category]Schema{
	Tasks:  {TitleProp: "Title", DatabaseKey: "tasks", Label: "Tasks"},
	Work:   {TitleProp: "Title", DatabaseKey: "work", Label: "Work"},
	People: {TitleProp: "Name", DatabaseKey: "people", Label: "People to follow up with"},
	Admin:  {TitleProp: "Title", DatabaseKey: "admin", Label: "Admin"},
}

// Parse maps a user-supplied token to a Category, case-insensitively.
func Parse(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemas[c]; !ok {
		return "", fmt.Errorf("unknown category %q (valid: %s)", s, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := schemas[c]
	return ok
}

// Schema returns the store layout for c. Panics on an invalid category;
// callers are expected to hold a parsed Category.
func (c Category) Schema() Schema {
	s, ok := schemas[c]
	if !ok {
		panic(fmt.Sprintf("category: no schema for %q", string(c)))
	}
	return s
}

func (c Category) String() string {
	return string(c)
}

// Names returns the valid category tokens in display order.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, c := range All {
		names = append(names, string(c))
	}
	return names
}
