package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

type createdRecord struct {
	Category category.Category
	Fields   notion.RecordFields
}

type fieldUpdate struct {
	ID    string
	Field string
	Value string
}

type mockStore struct {
	mu            sync.Mutex
	created       []createdRecord
	createErr     error
	active        map[category.Category][]notion.Item
	searchResults map[string][]notion.Candidate
	fieldUpdates  []fieldUpdate
	tagUpdates    map[string][]string
	tagErr        map[string]error
	byTag         map[string][]notion.Item
	vocab         map[category.Category][]string
	vocabErr      error
}

func newMockStore() *mockStore {
	return &mockStore{
		active:        map[category.Category][]notion.Item{},
		searchResults: map[string][]notion.Candidate{},
		tagUpdates:    map[string][]string{},
		tagErr:        map[string]error{},
		byTag:         map[string][]notion.Item{},
	}
}

func (m *mockStore) CreateRecord(_ context.Context, cat category.Category, fields notion.RecordFields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, createdRecord{Category: cat, Fields: fields})
	return fmt.Sprintf("rec-%d", len(m.created)), nil
}

func (m *mockStore) QueryActive(_ context.Context, cat category.Category) ([]notion.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[cat], nil
}

func (m *mockStore) SearchItems(_ context.Context, query string) ([]notion.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchResults[strings.ToLower(query)], nil
}

func (m *mockStore) UpdateField(_ context.Context, id, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fieldUpdates = append(m.fieldUpdates, fieldUpdate{ID: id, Field: field, Value: value})
	return nil
}

func (m *mockStore) UpdateTags(_ context.Context, id string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.tagErr[id]; err != nil {
		return err
	}
	m.tagUpdates[id] = tags
	// Reflect the write in the active snapshot so a re-run previews
	// nothing for this item.
	for cat, items := range m.active {
		for i := range items {
			if items[i].ID == id {
				m.active[cat][i].Tags = tags
			}
		}
	}
	return nil
}

func (m *mockStore) GetItemsByTag(_ context.Context, tag string) ([]notion.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byTag[tag], nil
}

func (m *mockStore) GetCompletedSince(_ context.Context, _ string) ([]notion.Item, error) {
	return nil, nil
}

func (m *mockStore) TagVocabulary(_ context.Context, cat category.Category) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vocabErr != nil {
		return nil, m.vocabErr
	}
	return m.vocab[cat], nil
}

type mockLog struct {
	mu       sync.Mutex
	entries  map[string]*notion.ConversationLogEntry
	byThread map[string]string
	nextID   int
}

func newMockLog() *mockLog {
	return &mockLog{
		entries:  map[string]*notion.ConversationLogEntry{},
		byThread: map[string]string{},
	}
}

func (m *mockLog) Append(_ context.Context, entry notion.ConversationLogEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("log-%d", m.nextID)
	entry.ID = id
	m.entries[id] = &entry
	// Latest entry wins per thread, matching a query sorted by recency.
	m.byThread[entry.ThreadKey] = id
	return id, nil
}

func (m *mockLog) FindByThreadKey(_ context.Context, key string) (*notion.ConversationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byThread[key]
	if !ok {
		return nil, notion.ErrNotFound
	}
	copied := *m.entries[id]
	return &copied, nil
}

func (m *mockLog) Update(_ context.Context, logID string, patch notion.LogPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[logID]
	if !ok {
		return notion.ErrNotFound
	}
	if patch.Category != nil {
		entry.Category = *patch.Category
	}
	if patch.Status != nil {
		entry.Status = *patch.Status
	}
	if patch.Payload != nil {
		entry.Payload = *patch.Payload
	}
	return nil
}

// entryByThread returns the latest entry for a thread, for assertions.
func (m *mockLog) entryByThread(key string) *notion.ConversationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byThread[key]
	if !ok {
		return nil
	}
	return m.entries[id]
}

func (m *mockLog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockClassifier struct {
	mu         sync.Mutex
	results    map[string]classify.Result
	classifyN  int
	err        error
	transcript string
}

func newMockClassifier() *mockClassifier {
	return &mockClassifier{results: map[string]classify.Result{}}
}

func (m *mockClassifier) Classify(_ context.Context, text string) (classify.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifyN++
	if m.err != nil {
		return classify.Result{}, m.err
	}
	if r, ok := m.results[text]; ok {
		return r, nil
	}
	return classify.Result{
		Action:      classify.ActionCreate,
		Destination: category.Tasks,
		Confidence:  0.9,
		Data:        classify.Fields{Title: text},
	}, nil
}

func (m *mockClassifier) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	io.Copy(io.Discard, audio)
	return m.transcript, nil
}

func (m *mockClassifier) Elaborate(_ context.Context, _ classify.DigestKind, contextBlock string) (string, error) {
	return "elaborated: " + contextBlock, nil
}

type postedMessage struct {
	Channel   string
	ThreadKey string
	Text      string
}

type mockMessenger struct {
	mu       sync.Mutex
	posted   []postedMessage
	nextTS   int
	postErr  error
	fileBody string
}

func (m *mockMessenger) PostReply(_ context.Context, channel, threadKey, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return m.postErr
	}
	m.posted = append(m.posted, postedMessage{Channel: channel, ThreadKey: threadKey, Text: text})
	return nil
}

func (m *mockMessenger) PostDM(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, postedMessage{Channel: "dm", Text: text})
	return nil
}

func (m *mockMessenger) PostMessage(_ context.Context, channel, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", m.postErr
	}
	m.nextTS++
	ts := fmt.Sprintf("msg-%d", m.nextTS)
	m.posted = append(m.posted, postedMessage{Channel: channel, ThreadKey: ts, Text: text})
	return ts, nil
}

func (m *mockMessenger) DownloadFile(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.fileBody)), nil
}

func (m *mockMessenger) last() postedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.posted) == 0 {
		return postedMessage{}
	}
	return m.posted[len(m.posted)-1]
}

func (m *mockMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}
