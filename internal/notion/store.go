package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
)

// Store is the record-store surface the assistant core depends on.
type Store interface {
	// CreateRecord files a new record and returns its id.
	CreateRecord(ctx context.Context, cat category.Category, fields RecordFields) (string, error)
	// QueryActive returns every record in cat whose status is not Done.
	QueryActive(ctx context.Context, cat category.Category) ([]Item, error)
	// SearchItems finds records across all categories whose title contains
	// the query, as lightweight candidate snapshots.
	SearchItems(ctx context.Context, query string) ([]Candidate, error)
	// UpdateField changes one field (status, due_date, priority) on a
	// record. A due_date value of "remove" clears the date.
	UpdateField(ctx context.Context, id, field, value string) error
	// UpdateTags replaces a record's tag set.
	UpdateTags(ctx context.Context, id string, tags []string) error
	// GetItemsByTag returns active records carrying the tag, across all
	// categories.
	GetItemsByTag(ctx context.Context, tag string) ([]Item, error)
	// GetCompletedSince returns records marked Done and edited on or
	// after the given date (YYYY-MM-DD), across all categories.
	GetCompletedSince(ctx context.Context, date string) ([]Item, error)
	// TagVocabulary returns the tags configured on a category's database.
	TagVocabulary(ctx context.Context, cat category.Category) ([]string, error)
}

// PageStore implements Store against the Notion API, one database per
// category.
type PageStore struct {
	client    *Client
	databases map[string]string
}

// NewPageStore wires a store over the configured category databases.
// Every category must have a database id.
func NewPageStore(client *Client, databases map[string]string) (*PageStore, error) {
	for _, cat := range category.All {
		if databases[cat.Schema().DatabaseKey] == "" {
			return nil, fmt.Errorf("notion: no database configured for category %q", cat)
		}
	}
	return &PageStore{client: client, databases: databases}, nil
}

func (s *PageStore) databaseID(cat category.Category) string {
	return s.databases[cat.Schema().DatabaseKey]
}

func (s *PageStore) CreateRecord(ctx context.Context, cat category.Category, fields RecordFields) (string, error) {
	if !cat.Valid() {
		return "", fmt.Errorf("notion: invalid category %q", cat)
	}
	if strings.TrimSpace(fields.Title) == "" && strings.TrimSpace(fields.PersonName) == "" {
		return "", fmt.Errorf("notion: record needs a title")
	}
	props, err := buildRecordProperties(cat, fields)
	if err != nil {
		return "", err
	}
	return s.client.createPage(ctx, s.databaseID(cat), props)
}

func (s *PageStore) QueryActive(ctx context.Context, cat category.Category) ([]Item, error) {
	filter, err := filterNotDone()
	if err != nil {
		return nil, err
	}
	var items []Item
	err = s.client.queryDatabase(ctx, s.databaseID(cat), filter, func(page gjson.Result) {
		items = append(items, parseItem(cat, page))
	})
	if err != nil {
		return nil, fmt.Errorf("query active %s: %w", cat, err)
	}
	return items, nil
}

func (s *PageStore) SearchItems(ctx context.Context, query string) ([]Candidate, error) {
	var candidates []Candidate
	for _, cat := range category.All {
		filter, err := filterTitleContains(cat.Schema().TitleProp, query)
		if err != nil {
			return nil, err
		}
		err = s.client.queryDatabase(ctx, s.databaseID(cat), filter, func(page gjson.Result) {
			item := parseItem(cat, page)
			title := item.Title
			if title == "" {
				title = "Untitled"
			}
			candidates = append(candidates, Candidate{
				ID:       item.ID,
				Title:    title,
				Database: cat,
				Priority: item.Priority,
				DueDate:  item.DueDate,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", cat, err)
		}
	}
	return candidates, nil
}

func (s *PageStore) UpdateField(ctx context.Context, id, field, value string) error {
	props, err := buildFieldUpdate(field, value)
	if err != nil {
		return err
	}
	return s.client.updatePage(ctx, id, props)
}

func (s *PageStore) UpdateTags(ctx context.Context, id string, tags []string) error {
	props, err := buildTagsUpdate(tags)
	if err != nil {
		return err
	}
	return s.client.updatePage(ctx, id, props)
}

func (s *PageStore) GetItemsByTag(ctx context.Context, tag string) ([]Item, error) {
	filter, err := filterTag(tag)
	if err != nil {
		return nil, err
	}
	return s.queryAll(ctx, filter)
}

func (s *PageStore) GetCompletedSince(ctx context.Context, date string) ([]Item, error) {
	filter, err := filterCompletedSince(date)
	if err != nil {
		return nil, err
	}
	return s.queryAll(ctx, filter)
}

// queryAll runs one filter across all four databases. Per-category
// failures are tolerated; a category that errors contributes nothing.
func (s *PageStore) queryAll(ctx context.Context, filter []byte) ([]Item, error) {
	var items []Item
	for _, cat := range category.All {
		err := s.client.queryDatabase(ctx, s.databaseID(cat), filter, func(page gjson.Result) {
			items = append(items, parseItem(cat, page))
		})
		if err != nil {
			s.client.log.Warn(ctx, "query failed, skipping category",
				zap.String("category", string(cat)), zap.Error(err))
		}
	}
	return items, nil
}

func (s *PageStore) TagVocabulary(ctx context.Context, cat category.Category) ([]string, error) {
	body, err := s.client.retrieveDatabase(ctx, s.databaseID(cat))
	if err != nil {
		return nil, fmt.Errorf("tag vocabulary %s: %w", cat, err)
	}
	var tags []string
	gjson.GetBytes(body, "properties.Tags.multi_select.options").ForEach(func(_, opt gjson.Result) bool {
		tags = append(tags, opt.Get("name").String())
		return true
	})
	return tags, nil
}
