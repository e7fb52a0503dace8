package digest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/dates"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
	"github.com/fyrsmithlabs/secondbrain/internal/slack"
)

// Generator assembles digests from a store snapshot and delivers them.
type Generator struct {
	store      notion.Store
	classifier classify.Classifier
	messenger  slack.Messenger
	resolver   *dates.Resolver
	logger     *logging.Logger
}

// NewGenerator wires a digest generator.
func NewGenerator(store notion.Store, classifier classify.Classifier, messenger slack.Messenger, resolver *dates.Resolver, logger *logging.Logger) *Generator {
	return &Generator{
		store:      store,
		classifier: classifier,
		messenger:  messenger,
		resolver:   resolver,
		logger:     logger.Named("digest"),
	}
}

// snapshot fetches active items per category concurrently, plus the
// completed list for the evening and weekly personas.
func (g *Generator) snapshot(ctx context.Context, kind classify.DigestKind) (Snapshot, error) {
	snap := Snapshot{
		Active: map[category.Category][]notion.Item{},
		Today:  g.resolver.Today(),
	}
	var mu sync.Mutex

	eg, gctx := errgroup.WithContext(ctx)
	for _, cat := range category.All {
		eg.Go(func() error {
			items, err := g.store.QueryActive(gctx, cat)
			if err != nil {
				return err
			}
			mu.Lock()
			snap.Active[cat] = items
			mu.Unlock()
			return nil
		})
	}
	if kind != classify.DigestMorning {
		since := snap.Today
		if kind == classify.DigestWeekly {
			// The weekly persona reflects on the whole week, not just
			// today's completions.
			since = g.resolver.DaysAgo(7)
		}
		eg.Go(func() error {
			completed, err := g.store.GetCompletedSince(gctx, since)
			if err != nil {
				// The completed list is decoration; a digest without it
				// still goes out.
				g.logger.Warn(gctx, "completed lookup failed", zap.Error(err))
				return nil
			}
			mu.Lock()
			snap.Completed = completed
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("digest snapshot: %w", err)
	}
	return snap, nil
}

// compose builds the digest text: the deterministic skeleton, elaborated
// into prose when the language model cooperates.
func (g *Generator) compose(ctx context.Context, kind classify.DigestKind) (string, error) {
	snap, err := g.snapshot(ctx, kind)
	if err != nil {
		return "", err
	}

	skeleton := BuildSkeleton(kind, snap)
	prose, err := g.classifier.Elaborate(ctx, kind, BuildContext(kind, snap))
	if err != nil || prose == "" {
		if err != nil {
			g.logger.Warn(ctx, "elaboration failed, sending skeleton", zap.Error(err))
		}
		prose = skeleton
	}
	return Header(kind) + "\n\n" + prose, nil
}

// Send composes the digest and delivers it as a direct message.
func (g *Generator) Send(ctx context.Context, kind classify.DigestKind) error {
	text, err := g.compose(ctx, kind)
	if err != nil {
		return err
	}
	if err := g.messenger.PostDM(ctx, text); err != nil {
		return fmt.Errorf("deliver %s digest: %w", kind, err)
	}
	g.logger.Info(ctx, "digest sent", zap.String("kind", string(kind)))
	return nil
}

// Review composes a weekly-style review and posts it to the given
// channel, for the on-demand slash command.
func (g *Generator) Review(ctx context.Context, channel string) error {
	text, err := g.compose(ctx, classify.DigestWeekly)
	if err != nil {
		return err
	}
	if _, err := g.messenger.PostMessage(ctx, channel, text); err != nil {
		return fmt.Errorf("deliver review: %w", err)
	}
	return nil
}
