package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the secondbrain HTTP server.

The server receives Slack webhooks, slash commands, and scheduled digest
triggers, and shuts down gracefully on SIGINT/SIGTERM after draining any
in-flight conversations.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	metrics := server.NewHTTPMetrics(a.logger.Zap())

	srv, err := server.NewServer(
		a.assistant,
		a.generator,
		a.assistant,
		a.assistant.Runner(),
		a.messenger,
		a.cfg,
		metrics,
		a.logger,
	)
	if err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error(shutdownCtx, "server shutdown error", zap.Error(err))
		return err
	}

	a.logger.Info(shutdownCtx, "server stopped gracefully")
	return nil
}
