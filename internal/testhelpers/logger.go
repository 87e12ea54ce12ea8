package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/dietplan/internal/logging"
)

// NewLogger creates a debug level text logger writing to logSink, usually a [Writer] from NewWriter.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.New(logSink, "text", slog.LevelDebug)
}
