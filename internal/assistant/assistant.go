// Package assistant implements the conversational core: routing inbound
// platform events, filing captures, and driving the multi-turn
// correction, update-confirmation, and tag-backfill conversations.
//
// The serving runtime is stateless between requests. Every pending
// conversation is reconstructed from the conversation log keyed by the
// thread anchor, so concurrent process instances stay consistent enough
// for a single-user assistant.
package assistant

import (
	"time"

	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/dates"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
	"github.com/fyrsmithlabs/secondbrain/internal/slack"
)

// Assistant wires the conversational handlers over their collaborators.
type Assistant struct {
	store      notion.Store
	log        notion.Log
	classifier classify.Classifier
	messenger  slack.Messenger
	resolver   *dates.Resolver

	inboxChannel string
	threshold    float64

	dedupe *deduper
	runner *Runner
	logger *logging.Logger
}

// New builds an assistant. The dedupe window bounds how long event ids
// are remembered for duplicate suppression.
func New(
	store notion.Store,
	log notion.Log,
	classifier classify.Classifier,
	messenger slack.Messenger,
	resolver *dates.Resolver,
	cfg config.CaptureConfig,
	inboxChannel string,
	logger *logging.Logger,
) *Assistant {
	return &Assistant{
		store:        store,
		log:          log,
		classifier:   classifier,
		messenger:    messenger,
		resolver:     resolver,
		inboxChannel: inboxChannel,
		threshold:    cfg.ConfidenceThreshold,
		dedupe:       newDeduper(cfg.DedupeWindow.Duration(), time.Now),
		runner:       NewRunner(logger),
		logger:       logger.Named("assistant"),
	}
}

// Runner exposes the background continuation runner, so the server can
// drain in-flight work on shutdown.
func (a *Assistant) Runner() *Runner {
	return a.runner
}
