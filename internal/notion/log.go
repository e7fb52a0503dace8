package notion

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
)

// Log is the conversation-log surface the assistant core depends on.
// Entries are append-or-update only; nothing here deletes. The log is the
// only place multi-turn conversation state lives.
type Log interface {
	// Append writes a new entry and returns its id.
	Append(ctx context.Context, entry ConversationLogEntry) (string, error)
	// FindByThreadKey returns the entry anchored at the given thread key,
	// or ErrNotFound.
	FindByThreadKey(ctx context.Context, key string) (*ConversationLogEntry, error)
	// Update applies a partial patch to an existing entry.
	Update(ctx context.Context, logID string, patch LogPatch) error
}

// InboxLog implements Log against a single Notion database.
type InboxLog struct {
	client     *Client
	databaseID string
}

// NewInboxLog wires the conversation log over its configured database.
func NewInboxLog(client *Client, databases map[string]string) (*InboxLog, error) {
	id := databases["inbox_log"]
	if id == "" {
		return nil, fmt.Errorf("notion: no inbox_log database configured")
	}
	return &InboxLog{client: client, databaseID: id}, nil
}

func (l *InboxLog) Append(ctx context.Context, entry ConversationLogEntry) (string, error) {
	props := []byte(`{}`)
	var err error
	if props, err = setTitle(props, "Original Text", entry.OriginalText); err != nil {
		return "", fmt.Errorf("notion: build log entry: %w", err)
	}
	if entry.Category != "" {
		if props, err = setSelect(props, "Destination", string(entry.Category)); err != nil {
			return "", fmt.Errorf("notion: build log entry: %w", err)
		}
	}
	if props, err = setNumber(props, "Confidence", entry.Confidence); err != nil {
		return "", fmt.Errorf("notion: build log entry: %w", err)
	}
	if props, err = setRichText(props, "Thread Key", entry.ThreadKey); err != nil {
		return "", fmt.Errorf("notion: build log entry: %w", err)
	}
	if props, err = setSelect(props, "Status", string(entry.Status)); err != nil {
		return "", fmt.Errorf("notion: build log entry: %w", err)
	}
	if props, err = setRichText(props, "Payload", entry.Payload); err != nil {
		return "", fmt.Errorf("notion: build log entry: %w", err)
	}
	return l.client.createPage(ctx, l.databaseID, props)
}

func (l *InboxLog) FindByThreadKey(ctx context.Context, key string) (*ConversationLogEntry, error) {
	filter, err := filterThreadKey(key)
	if err != nil {
		return nil, err
	}
	var entry *ConversationLogEntry
	err = l.client.queryDatabase(ctx, l.databaseID, filter, func(page gjson.Result) {
		if entry != nil {
			return
		}
		e := parseLogEntry(page)
		entry = &e
	})
	if err != nil {
		return nil, fmt.Errorf("find log entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (l *InboxLog) Update(ctx context.Context, logID string, patch LogPatch) error {
	props := []byte(`{}`)
	var err error
	if patch.Category != nil {
		if props, err = setSelect(props, "Destination", string(*patch.Category)); err != nil {
			return fmt.Errorf("notion: build log patch: %w", err)
		}
	}
	if patch.Status != nil {
		if props, err = setSelect(props, "Status", string(*patch.Status)); err != nil {
			return fmt.Errorf("notion: build log patch: %w", err)
		}
	}
	if patch.Payload != nil {
		if props, err = setRichText(props, "Payload", *patch.Payload); err != nil {
			return fmt.Errorf("notion: build log patch: %w", err)
		}
	}
	return l.client.updatePage(ctx, logID, props)
}

func parseLogEntry(page gjson.Result) ConversationLogEntry {
	props := page.Get("properties")
	return ConversationLogEntry{
		ID:           page.Get("id").String(),
		OriginalText: props.Get("Original Text.title.0.text.content").String(),
		Category:     category.Category(props.Get("Destination.select.name").String()),
		Confidence:   props.Get("Confidence.number").Float(),
		ThreadKey:    props.Get("Thread Key.rich_text.0.text.content").String(),
		Status:       Status(props.Get("Status.select.name").String()),
		Payload:      props.Get("Payload.rich_text.0.text.content").String(),
	}
}
