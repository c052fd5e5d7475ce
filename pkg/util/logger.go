package util

import (
	"log/slog"
	"os"
)

// EnvDevelopment is the SERVER_ENV value that switches on human-readable
// debug logging.
const EnvDevelopment = "development"

// NewLogger builds the process logger: a text handler at debug level in
// development, a JSON handler at info level everywhere else.
func NewLogger(env string) *slog.Logger {
	if env == EnvDevelopment {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
