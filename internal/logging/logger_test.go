package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with defaults", func(t *testing.T) {
		logger, err := NewLogger(NewDefaultConfig(), nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "csv"
		_, err := NewLogger(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("rejects config with no outputs", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.Stdout = false
		cfg.Output.OTEL = false
		_, err := NewLogger(cfg, nil)
		assert.Error(t, err)
	})
}

func TestContextFields(t *testing.T) {
	t.Run("empty context has no fields", func(t *testing.T) {
		assert.Empty(t, ContextFields(context.Background()))
	})

	t.Run("carries request id, thread key, and channel", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithThreadKey(ctx, "1700000000.000100")
		ctx = WithChannel(ctx, "C0INBOX")

		fields := ContextFields(ctx)
		require.Len(t, fields, 3)
		assert.Equal(t, zap.String("request.id", "req-1"), fields[0])
		assert.Equal(t, zap.String("thread.ts", "1700000000.000100"), fields[1])
		assert.Equal(t, zap.String("channel", "C0INBOX"), fields[2])
	})

	t.Run("accessors return empty string when unset", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, RequestIDFromContext(ctx))
		assert.Empty(t, ThreadKeyFromContext(ctx))
		assert.Empty(t, ChannelFromContext(ctx))
	})
}

func TestContextAwareLogging(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithThreadKey(context.Background(), "1.1")

	logger.Info(ctx, "filed record", zap.String("category", "tasks"))

	entries := logger.All()
	require.Len(t, entries, 1)
	fieldMap := entries[0].ContextMap()
	assert.Equal(t, "1.1", fieldMap["thread.ts"])
	assert.Equal(t, "tasks", fieldMap["category"])
}

func TestTraceLevel(t *testing.T) {
	t.Run("trace entries observed at trace level", func(t *testing.T) {
		logger := NewTestLogger()
		logger.Trace(context.Background(), "raw event payload")
		logger.AssertLogged(t, TraceLevel, "raw event payload")
	})

	t.Run("level from string", func(t *testing.T) {
		level, err := LevelFromString("trace")
		require.NoError(t, err)
		assert.Equal(t, TraceLevel, level)

		level, err = LevelFromString("warn")
		require.NoError(t, err)
		assert.Equal(t, zapcore.WarnLevel, level)

		_, err = LevelFromString("loud")
		assert.Error(t, err)
	})
}

func TestNamed(t *testing.T) {
	logger := NewTestLogger()
	named := logger.Named("assistant")
	named.Info(context.Background(), "routed event")

	entries := logger.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "assistant", entries[0].LoggerName)
}
