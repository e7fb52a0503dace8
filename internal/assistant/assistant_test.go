package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/dates"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
)

const testInboxChannel = "C0INBOX"

// fixedNow anchors every test clock. A Monday.
var fixedNow = time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)

type fixture struct {
	assistant  *Assistant
	store      *mockStore
	log        *mockLog
	classifier *mockClassifier
	messenger  *mockMessenger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMockStore()
	log := newMockLog()
	classifier := newMockClassifier()
	messenger := &mockMessenger{}
	resolver := dates.NewResolverAt(func() time.Time { return fixedNow })

	a := New(store, log, classifier, messenger, resolver, config.CaptureConfig{
		ConfidenceThreshold: 0.7,
		DedupeWindow:        config.Duration(5 * time.Minute),
	}, testInboxChannel, logging.NewTestLogger().Logger)

	return &fixture{
		assistant:  a,
		store:      store,
		log:        log,
		classifier: classifier,
		messenger:  messenger,
	}
}

// wait drains the background runner so assertions see settled state.
func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.assistant.Runner().Wait(ctx))
}
