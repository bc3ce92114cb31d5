package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() {
		Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := InitLogger(Config{Level: "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("writes to file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "advisor.log")
		require.NoError(t, InitLogger(Config{Level: "info", Output: "file", FilePath: path}))

		Info().Str("session_id", "s1").Msg("turn handled")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"session_id":"s1"`)
	})
}

func TestSetOutput(t *testing.T) {
	t.Cleanup(func() { Logger = zerolog.Nop() })

	var buf bytes.Buffer
	SetOutput(&buf)
	Warn().Msg("fallback used")

	assert.Contains(t, buf.String(), "fallback used")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
