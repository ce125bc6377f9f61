// Package logging configures the application's structured loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

// currentLevel backs every handler created by this package, so raising the
// level after flag parsing affects loggers that already exist.
var currentLevel = new(slog.LevelVar)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable
// loggers: JSON output to stdout and text output to stderr.
func Init(level slog.Level) {
	currentLevel.Set(level)
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: replaceLevelNames,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: replaceLevelNames,
	}))

	slog.SetDefault(structuredLogger)
}

// SetLevel changes the level of every logger created by this package,
// including loggers handed out before the call.
func SetLevel(level slog.Level) {
	currentLevel.Set(level)
}

// CurrentLevel reports the active logging level.
func CurrentLevel() slog.Level {
	return currentLevel.Level()
}

// Structured returns the JSON structured logger.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		Init(slog.LevelInfo)
	}
	return structuredLogger
}

// HumanReadable returns the text logger intended for terminals.
func HumanReadable() *slog.Logger {
	if humanReadableLogger == nil {
		Init(slog.LevelInfo)
	}
	return humanReadableLogger
}

// ForService returns the structured logger scoped to a service name.
// Components receive their logger explicitly rather than reaching for a
// global.
func ForService(service string) *slog.Logger {
	return Structured().With("service", service)
}

// NewFileLogger creates a logger writing JSON records to a rotating log
// file. The returned closer flushes and closes the file.
func NewFileLogger(path, service string, level slog.Level) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	logger := slog.New(handler).With("service", service)

	return logger, rotator.Close, nil
}

// SetOutput redirects the structured and human-readable loggers, used by
// tests to capture log output.
func SetOutput(structuredOutput, humanReadableOutput io.Writer, level slog.Level) {
	currentLevel.Set(level)
	structuredLogger = slog.New(slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: replaceLevelNames,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(humanReadableOutput, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: replaceLevelNames,
	}))
	slog.SetDefault(structuredLogger)
}

// Debug logs a debug message with the structured logger.
func Debug(msg string, args ...any) { Structured().Debug(msg, args...) }

// Info logs an info message with the structured logger.
func Info(msg string, args ...any) { Structured().Info(msg, args...) }

// Warn logs a warning message with the structured logger.
func Warn(msg string, args ...any) { Structured().Warn(msg, args...) }

// Error logs an error message with the structured logger.
func Error(msg string, args ...any) { Structured().Error(msg, args...) }
