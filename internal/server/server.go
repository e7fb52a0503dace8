// Package server exposes the HTTP surface: Slack webhooks, scheduled digest
// triggers, and the tag backfill endpoint.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fyrsmithlabs/secondbrain/internal/assistant"
	"github.com/fyrsmithlabs/secondbrain/internal/classify"
	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/slack"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Events routes verified Slack event envelopes.
type Events interface {
	HandleEvent(ctx context.Context, env *slack.Envelope)
}

// Digests sends scheduled digests and on-demand reviews.
type Digests interface {
	Send(ctx context.Context, kind classify.DigestKind) error
	Review(ctx context.Context, channel string) error
}

// Backfill applies inferred tags to untagged active items.
type Backfill interface {
	ApplyBackfill(ctx context.Context) (assistant.BackfillStats, error)
}

// Server provides the HTTP endpoints for secondbrain.
type Server struct {
	echo          *echo.Echo
	events        Events
	digests       Digests
	backfill      Backfill
	runner        *assistant.Runner
	messenger     slack.Messenger
	logger        *logging.Logger
	config        config.ServerConfig
	signingSecret config.Secret
	cronSecret    config.Secret
	now           func() time.Time
}

// NewServer creates a new HTTP server. metrics may be nil to disable
// instrumentation.
func NewServer(
	events Events,
	digests Digests,
	backfill Backfill,
	runner *assistant.Runner,
	messenger slack.Messenger,
	cfg *config.Config,
	metrics *HTTPMetrics,
	logger *logging.Logger,
) (*Server, error) {
	if events == nil {
		return nil, fmt.Errorf("events handler cannot be nil")
	}
	if digests == nil {
		return nil, fmt.Errorf("digest generator cannot be nil")
	}
	if backfill == nil {
		return nil, fmt.Errorf("backfill handler cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})
	if metrics != nil {
		e.Use(metrics.MetricsMiddleware())
	}

	s := &Server{
		echo:          e,
		events:        events,
		digests:       digests,
		backfill:      backfill,
		runner:        runner,
		messenger:     messenger,
		logger:        logger,
		config:        cfg.Server,
		signingSecret: cfg.Slack.SigningSecret,
		cronSecret:    cfg.Cron.Secret,
		now:           time.Now,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints. The health probe stays
// unthrottled; everything under /api shares the per-IP rate limit.
func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	if s.config.RateLimit > 0 {
		limiter := newIPRateLimiter(rate.Limit(s.config.RateLimit), s.config.RateBurst, s.logger)
		api.Use(limiter.Middleware())
	}
	api.POST("/slack/events", s.handleSlackEvents)
	api.POST("/slack/commands", s.handleSlackCommand)
	api.GET("/cron/morning-digest", s.handleCron(classify.DigestMorning))
	api.GET("/cron/evening-digest", s.handleCron(classify.DigestEvening))
	api.GET("/cron/weekly-review", s.handleCron(classify.DigestWeekly))
	api.POST("/backfill-tags", s.handleBackfillTags)
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// slashResponse is the body Slack expects back from a slash command.
type slashResponse struct {
	ResponseType string `json:"response_type,omitempty"`
	Text         string `json:"text"`
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// verifySlack checks the Slack request signature over the raw body.
func (s *Server) verifySlack(c echo.Context, body []byte) bool {
	timestamp := c.Request().Header.Get("X-Slack-Request-Timestamp")
	signature := c.Request().Header.Get("X-Slack-Signature")
	return slack.VerifySignature(s.signingSecret, timestamp, signature, body, s.now())
}

// handleSlackEvents receives the Slack Events API webhook.
func (s *Server) handleSlackEvents(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	var env slack.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid slack event payload", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event payload")
	}

	// Slack sends the one-time URL handshake before anything else; answer
	// it so the endpoint can be registered.
	if env.Type == slack.TypeURLVerification {
		return c.JSON(http.StatusOK, map[string]string{"challenge": env.Challenge})
	}

	if !s.verifySlack(c, body) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid signature"})
	}

	s.events.HandleEvent(c.Request().Context(), &env)

	// Slack retries on anything but a prompt 200, so every accepted event
	// acknowledges immediately. Processing continues in the background.
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

const reviewFailedText = "❌ Sorry, something went wrong generating your review."

// handleSlackCommand receives slash command form posts.
func (s *Server) handleSlackCommand(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	if !s.verifySlack(c, body) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid signature"})
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}

	command := values.Get("command")
	channel := values.Get("channel_id")

	if command == "/review" && channel != "" {
		// Acknowledge within Slack's deadline, generate in the background.
		s.runner.Go("slash-review",
			func(ctx context.Context) error {
				return s.digests.Review(ctx, channel)
			},
			func(ctx context.Context, err error) {
				if _, perr := s.messenger.PostMessage(ctx, channel, reviewFailedText); perr != nil {
					s.logger.Error(ctx, "failed to report review failure", zap.Error(perr))
				}
			},
		)
		return c.JSON(http.StatusOK, slashResponse{
			ResponseType: "ephemeral",
			Text:         "📋 Generating your review...",
		})
	}

	return c.JSON(http.StatusOK, slashResponse{Text: "Unknown command"})
}

// authorized checks the bearer token protecting scheduled triggers.
func (s *Server) authorized(c echo.Context) bool {
	header := c.Request().Header.Get("Authorization")
	expected := "Bearer " + s.cronSecret.Value()
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}

// handleCron triggers a scheduled digest of the given kind.
func (s *Server) handleCron(kind classify.DigestKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if !s.cronSecret.IsSet() || !s.authorized(c) {
			s.logger.Warn(ctx, "unauthorized cron trigger", zap.String("kind", string(kind)))
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		}

		if err := s.digests.Send(ctx, kind); err != nil {
			s.logger.Error(ctx, "digest failed",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to send digest"})
		}
		return c.JSON(http.StatusOK, okResponse{OK: true})
	}
}

// handleBackfillTags applies inferred tags to all untagged active items and
// reports what changed.
func (s *Server) handleBackfillTags(c echo.Context) error {
	ctx := c.Request().Context()
	if !s.cronSecret.IsSet() {
		return c.JSON(http.StatusNotImplemented, errorResponse{Error: "cron secret not configured"})
	}
	if !s.authorized(c) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	}

	stats, err := s.backfill.ApplyBackfill(ctx)
	if err != nil {
		s.logger.Error(ctx, "backfill failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Backfill failed"})
	}

	s.logger.Info(ctx, "backfill complete",
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
	return c.JSON(http.StatusOK, stats)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server and drains any in-flight
// background conversations.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	return s.runner.Wait(ctx)
}
