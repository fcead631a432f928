package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Small leveled logger used across the application. Call sites pass a
// message plus alternating key/value pairs:
//
//	log.Info("event advanced", "id", ev.ID, "next_date", next)
//	log.Error("sweep failed", err, "run_id", runID)
//
// Errors always carry the error under the "err" key.

var (
	logger     *slog.Logger
	loggerOnce sync.Once
	levelVar   slog.LevelVar
)

// initLogger builds the global slog logger writing to stderr.
// The STEMBOT_LOG_LEVEL env var (debug|info|warn|error) sets the minimum
// level; the default is info.
func initLogger() {
	loggerOnce.Do(func() {
		levelVar.Set(levelFromEnv())
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar})
		logger = slog.New(h)
	})
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("STEMBOT_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel overrides the minimum level at runtime.
func SetLevel(l slog.Level) {
	initLogger()
	levelVar.Set(l)
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warn(msg, kv...)
}

// Error logs msg with the error prepended as the "err" attribute.
func Error(msg string, err error, kv ...any) {
	initLogger()
	extended := append([]any{"err", err}, kv...)
	logger.Error(msg, extended...)
}
