package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/assistant"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/dates"
	"github.com/fyrsmithlabs/secondbrain/internal/digest"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
	"github.com/fyrsmithlabs/secondbrain/internal/slack"
	"github.com/fyrsmithlabs/secondbrain/internal/telemetry"
)

// app holds the wired application components shared by all subcommands.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	messenger *slack.Client
	assistant *assistant.Assistant
	generator *digest.Generator
}

// newApp loads configuration and wires every component. Credentials are
// validated lazily by the components that need them, so read-only commands
// can run with a partial credential set.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		// Telemetry failures degrade, they never block startup.
		logger.Warn(ctx, "telemetry initialization failed", zap.Error(err))
	}

	notionClient := notion.NewClient(cfg.Notion, logger)
	store, err := notion.NewPageStore(notionClient, cfg.Notion.Databases)
	if err != nil {
		return nil, fmt.Errorf("initializing notion store: %w", err)
	}
	inboxLog, err := notion.NewInboxLog(notionClient, cfg.Notion.Databases)
	if err != nil {
		return nil, fmt.Errorf("initializing inbox log: %w", err)
	}

	classifier, err := classify.NewOpenAIClassifier(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("initializing classifier: %w", err)
	}

	messenger := slack.NewClient(cfg.Slack, logger)
	resolver := dates.NewResolver()

	asst := assistant.New(
		store,
		inboxLog,
		classifier,
		messenger,
		resolver,
		cfg.Capture,
		cfg.Slack.InboxChannelID,
		logger,
	)

	generator := digest.NewGenerator(store, classifier, messenger, resolver, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		messenger: messenger,
		assistant: asst,
		generator: generator,
	}, nil
}

// Close flushes telemetry and logs.
func (a *app) Close(ctx context.Context) {
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown error", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func initLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	logCfg.Format = cfg.Logging.Format
	logCfg.Output.OTEL = cfg.Logging.OTEL

	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	logCfg.Level = level

	return logging.NewLogger(logCfg, nil)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.Endpoint = cfg.Telemetry.Endpoint
	telCfg.Protocol = cfg.Telemetry.Protocol
	telCfg.Insecure = cfg.Telemetry.Insecure
	telCfg.TLSSkipVerify = cfg.Telemetry.TLSSkipVerify
	telCfg.ServiceVersion = version

	return telemetry.New(ctx, telCfg)
}
