package env

import (
	"fmt"
	"log/slog"
	"os"
)

// NewLogger creates the stdout text logger for the given level
// (debug, info, warn, error)
func NewLogger(level string) (*slog.Logger, error) {
	var l slog.Level

	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: l,
	})), nil
}
