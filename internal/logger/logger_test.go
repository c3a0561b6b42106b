package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-realm-auth/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json outside dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.New("PROD", "warn", &buf)
		l.Info().Msg("dropped")
		l.Warn().Str("realm_id", "r1").Msg("kept")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "kept", line["message"])
		require.Equal(t, "r1", line["realm_id"])
	})

	t.Run("unknown level is info", func(t *testing.T) {
		l := logger.New("PROD", "chatty", &bytes.Buffer{})
		require.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("console in dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.New("DEV", "debug", &buf)
		l.Debug().Msg("hello")
		require.Contains(t, buf.String(), "hello")
		require.False(t, json.Valid(buf.Bytes()))
	})
}
