package obs

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured JSON logger and installs it
// as the slog default.
func NewLogger(service string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", service)
	slog.SetDefault(logger)
	return logger
}
