package env

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_NewLogger(t *testing.T) {
	t.Parallel()

	t.Run("valid levels", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			level    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"INFO", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, testCase := range testTable {
			logger, err := NewLogger(testCase.level)
			require.NoError(t, err)

			assert.True(t, logger.Enabled(context.Background(), testCase.expected))

			if testCase.expected > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), testCase.expected-1))
			}
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		_, err := NewLogger("verbose")

		assert.Error(t, err)
	})
}
