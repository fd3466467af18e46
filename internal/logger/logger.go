package logger

import (
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvTest  = "test"
	EnvProd  = "production"
)

// Setup builds the process logger: readable text locally, JSON wherever a
// collector reads stdout.
func Setup(env string) *slog.Logger {
	debug := &slog.HandlerOptions{Level: slog.LevelDebug}
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case EnvDev, EnvTest:
		return slog.New(slog.NewJSONHandler(os.Stdout, debug))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, debug))
	}
}
