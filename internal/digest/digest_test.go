package digest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/dates"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
)

const today = "2026-08-31"

func TestPartition(t *testing.T) {
	items := []notion.Item{
		{ID: "a", Title: "Old bill", DueDate: "2026-08-20"},
		{ID: "b", Title: "Older bill", DueDate: "2026-08-10"},
		{ID: "c", Title: "Dentist", DueDate: today, Priority: 2},
		{ID: "d", Title: "Standup notes", DueDate: today},
		{ID: "e", Title: "Call mum", DueDate: today, Priority: 1},
		{ID: "f", Title: "Plan offsite", Priority: 1},
		{ID: "g", Title: "Read paper", Priority: 3},
		{ID: "h", Title: "Someday idea"}, // no date, no priority: dropped
	}

	s := Partition(items, today)

	assert.Equal(t, []string{"b", "a"}, ids(s.Overdue), "overdue sorts by due date ascending")
	assert.Equal(t, []string{"e", "c", "d"}, ids(s.DueToday), "due today sorts by priority, missing last")
	assert.Equal(t, []string{"f", "g"}, ids(s.Upcoming))
}

func TestPartitionIsDeterministic(t *testing.T) {
	items := []notion.Item{
		{ID: "a", Title: "Beta", DueDate: "2026-08-20"},
		{ID: "b", Title: "Alpha", DueDate: "2026-08-20"},
	}
	first := Partition(items, today)
	second := Partition(items, today)
	assert.Equal(t, ids(first.Overdue), ids(second.Overdue))
	assert.Equal(t, []string{"b", "a"}, ids(first.Overdue), "ties break on title")
}

func TestBuildSkeletonDeterministic(t *testing.T) {
	snap := Snapshot{
		Active: map[category.Category][]notion.Item{
			category.Tasks: {
				{ID: "a", Title: "Old bill", DueDate: "2026-08-20"},
				{ID: "b", Title: "Call mum", DueDate: today, Priority: 1},
			},
			category.Work: {
				{ID: "c", Title: "Plan offsite", Priority: 1},
			},
		},
		Completed: []notion.Item{{ID: "z", Title: "Water plants"}},
		Today:     today,
	}

	skeleton := BuildSkeleton(classify.DigestEvening, snap)
	assert.Equal(t, skeleton, BuildSkeleton(classify.DigestEvening, snap))

	assert.Contains(t, skeleton, "You closed out 1 item today.")
	assert.Contains(t, skeleton, "Overdue (1):\n- Old bill (due: 2026-08-20)")
	assert.Contains(t, skeleton, "Due today (1):\n- Call mum (due: 2026-08-31) [P1]")
	assert.Contains(t, skeleton, "Upcoming priorities (1):\n- Plan offsite [P1]")
	assert.Contains(t, skeleton, "Completed (1):")
}

func TestBuildSkeletonMorningOmitsCompleted(t *testing.T) {
	snap := Snapshot{
		Active:    map[category.Category][]notion.Item{},
		Completed: []notion.Item{{ID: "z", Title: "Water plants"}},
		Today:     today,
	}
	skeleton := BuildSkeleton(classify.DigestMorning, snap)
	assert.Contains(t, skeleton, "Here's the shape of your day.")
	assert.Contains(t, skeleton, "Nothing scheduled or prioritized right now.")
	assert.NotContains(t, skeleton, "Completed")
}

func TestBuildContextCapsAtTenPerCategory(t *testing.T) {
	var tasks []notion.Item
	for i := 0; i < 15; i++ {
		tasks = append(tasks, notion.Item{ID: string(rune('a' + i)), Title: "Task"})
	}
	ctx := BuildContext(classify.DigestMorning, Snapshot{
		Active: map[category.Category][]notion.Item{category.Tasks: tasks},
		Today:  today,
	})
	assert.Contains(t, ctx, "Tasks (15):")
	assert.Equal(t, 10, countLinesWithPrefix(ctx, "- Task"))
}

func TestBuildContextCompletedLabelPerKind(t *testing.T) {
	snap := Snapshot{
		Active:    map[category.Category][]notion.Item{},
		Completed: []notion.Item{{ID: "z", Title: "Water plants"}},
		Today:     today,
	}
	assert.Contains(t, BuildContext(classify.DigestEvening, snap), "Completed today (1):")
	assert.Contains(t, BuildContext(classify.DigestWeekly, snap), "Completed this week (1):")
}

type stubStore struct {
	notion.Store
	mu             sync.Mutex
	active         map[category.Category][]notion.Item
	completed      []notion.Item
	completedErr   error
	completedSince string
}

func (s *stubStore) QueryActive(_ context.Context, cat category.Category) ([]notion.Item, error) {
	return s.active[cat], nil
}

func (s *stubStore) GetCompletedSince(_ context.Context, since string) ([]notion.Item, error) {
	s.mu.Lock()
	s.completedSince = since
	s.mu.Unlock()
	return s.completed, s.completedErr
}

type stubClassifier struct {
	prose string
	err   error
}

func (s *stubClassifier) Classify(context.Context, string) (classify.Result, error) {
	return classify.Result{}, errors.New("not used")
}

func (s *stubClassifier) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubClassifier) Elaborate(_ context.Context, _ classify.DigestKind, _ string) (string, error) {
	return s.prose, s.err
}

type stubMessenger struct {
	dms      []string
	messages []string
}

func (s *stubMessenger) PostReply(context.Context, string, string, string) error { return nil }

func (s *stubMessenger) PostDM(_ context.Context, text string) error {
	s.dms = append(s.dms, text)
	return nil
}

func (s *stubMessenger) PostMessage(_ context.Context, _ string, text string) (string, error) {
	s.messages = append(s.messages, text)
	return "ts-1", nil
}

func (s *stubMessenger) DownloadFile(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func newGeneratorFixture(store *stubStore, classifier *stubClassifier, messenger *stubMessenger) *Generator {
	resolver := dates.NewResolverAt(func() time.Time {
		return time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	})
	return NewGenerator(store, classifier, messenger, resolver, logging.NewTestLogger().Logger)
}

func TestSendMorningDigestWithElaboration(t *testing.T) {
	store := &stubStore{active: map[category.Category][]notion.Item{
		category.Tasks: {{ID: "a", Title: "Call mum", DueDate: today, Priority: 1}},
	}}
	messenger := &stubMessenger{}
	g := newGeneratorFixture(store, &stubClassifier{prose: "Start with calling your mum."}, messenger)

	require.NoError(t, g.Send(context.Background(), classify.DigestMorning))
	require.Len(t, messenger.dms, 1)
	assert.Contains(t, messenger.dms[0], "☀️ *Morning Briefing*")
	assert.Contains(t, messenger.dms[0], "Start with calling your mum.")
}

func TestSendFallsBackToSkeletonOnElaborationFailure(t *testing.T) {
	store := &stubStore{
		active: map[category.Category][]notion.Item{
			category.Tasks: {{ID: "a", Title: "Call mum", DueDate: today, Priority: 1}},
		},
		completed: []notion.Item{{ID: "z", Title: "Water plants"}},
	}
	messenger := &stubMessenger{}
	g := newGeneratorFixture(store, &stubClassifier{err: errors.New("model down")}, messenger)

	require.NoError(t, g.Send(context.Background(), classify.DigestEvening))
	require.Len(t, messenger.dms, 1)
	assert.Contains(t, messenger.dms[0], "🌙 *Evening Review*")
	assert.Contains(t, messenger.dms[0], "Due today (1):")
	assert.Contains(t, messenger.dms[0], "You closed out 1 item today.")
}

func TestCompletedWindowPerKind(t *testing.T) {
	t.Run("evening covers today only", func(t *testing.T) {
		store := &stubStore{active: map[category.Category][]notion.Item{}}
		g := newGeneratorFixture(store, &stubClassifier{prose: "done"}, &stubMessenger{})

		require.NoError(t, g.Send(context.Background(), classify.DigestEvening))
		assert.Equal(t, today, store.completedSince)
	})

	t.Run("weekly looks back seven days", func(t *testing.T) {
		store := &stubStore{active: map[category.Category][]notion.Item{}}
		g := newGeneratorFixture(store, &stubClassifier{prose: "done"}, &stubMessenger{})

		require.NoError(t, g.Send(context.Background(), classify.DigestWeekly))
		assert.Equal(t, "2026-08-24", store.completedSince)
	})

	t.Run("morning never queries completions", func(t *testing.T) {
		store := &stubStore{active: map[category.Category][]notion.Item{}}
		g := newGeneratorFixture(store, &stubClassifier{prose: "done"}, &stubMessenger{})

		require.NoError(t, g.Send(context.Background(), classify.DigestMorning))
		assert.Empty(t, store.completedSince)
	})
}

func TestReviewPostsToChannel(t *testing.T) {
	store := &stubStore{active: map[category.Category][]notion.Item{}}
	messenger := &stubMessenger{}
	g := newGeneratorFixture(store, &stubClassifier{prose: "All clear this week."}, messenger)

	require.NoError(t, g.Review(context.Background(), "C0REVIEW"))
	require.Len(t, messenger.messages, 1)
	assert.Contains(t, messenger.messages[0], "📅 *Weekly Review*")
	assert.Contains(t, messenger.messages[0], "All clear this week.")
}

func ids(items []notion.Item) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func countLinesWithPrefix(s, prefix string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
