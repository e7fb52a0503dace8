package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/secondbrain/internal/config"
)

func TestSecretField(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Info("client configured", Secret("api_key", config.Secret("sk-12345")))

	entries := observed.All()
	require.Len(t, entries, 1)
	obj, ok := entries[0].ContextMap()["api_key"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "[REDACTED:8]", obj["api_key"])
}

func TestRedactedString(t *testing.T) {
	field := RedactedString("token", "xoxb-abc")
	assert.Equal(t, "[REDACTED:8]", field.String)
}

func newTestEncoder(t *testing.T, cfg RedactionConfig) (*RedactingEncoder, zapcore.Encoder) {
	t.Helper()
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	enc, err := NewRedactingEncoder(base, cfg)
	require.NoError(t, err)
	return enc, base
}

func TestRedactingEncoder(t *testing.T) {
	cfg := RedactionConfig{
		Enabled:  true,
		Fields:   []string{"password", "bot_token"},
		Patterns: []string{`(?i)xox[bpars]-\S+`},
	}

	t.Run("redacts sensitive field names case-insensitively", func(t *testing.T) {
		enc, _ := newTestEncoder(t, cfg)
		enc.AddString("Password", "hunter2")
		enc.AddString("note", "call the dentist")

		entry, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, nil)
		require.NoError(t, err)
		out := entry.String()
		assert.NotContains(t, out, "hunter2")
		assert.Contains(t, out, "[REDACTED]")
		assert.Contains(t, out, "call the dentist")
	})

	t.Run("redacts values matching patterns", func(t *testing.T) {
		enc, _ := newTestEncoder(t, cfg)
		enc.AddString("detail", "token is xoxb-1234-abcd")

		entry, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, nil)
		require.NoError(t, err)
		out := entry.String()
		assert.NotContains(t, out, "xoxb-1234-abcd")
		assert.Contains(t, out, "[REDACTED:pattern]")
	})

	t.Run("disabled config passes values through", func(t *testing.T) {
		enc, _ := newTestEncoder(t, RedactionConfig{Enabled: false})
		enc.AddString("password", "hunter2")

		entry, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, nil)
		require.NoError(t, err)
		assert.Contains(t, entry.String(), "hunter2")
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		_, err := NewRedactingEncoder(base, RedactionConfig{
			Enabled:  true,
			Patterns: []string{"[unclosed"},
		})
		assert.Error(t, err)
	})

	t.Run("clone keeps redaction rules", func(t *testing.T) {
		enc, _ := newTestEncoder(t, cfg)
		clone, ok := enc.Clone().(*RedactingEncoder)
		require.True(t, ok)
		clone.AddString("bot_token", "xoxb-999")

		entry, err := clone.EncodeEntry(zapcore.Entry{Message: "m"}, nil)
		require.NoError(t, err)
		assert.NotContains(t, entry.String(), "xoxb-999")
	})
}
