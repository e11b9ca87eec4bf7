package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
)

var (
	once   sync.Once
	logger *slog.Logger
)

type Options struct {
	Level      slog.Leveler // slog.LevelInfo, slog.LevelDebug, etc.
	Writer     io.Writer    // default: os.Stdout
	TimeFormat string       // default: 2025-07-25T10:41:10+07:00
	NoColor    bool
}

func Init(opts *Options) {
	once.Do(func() {
		logger = New(opts)
		slog.SetDefault(logger)
	})
}

// New builds a tint-backed logger without touching the package default.
func New(opts *Options) *slog.Logger {
	if opts == nil {
		opts = &Options{}
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	return slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      opts.Level,
		TimeFormat: opts.TimeFormat,
		NoColor:    opts.NoColor,
	}))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Fatal logs an error then exits.
func Fatal(msg string, args ...any) {
	Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return L().With(args...)
}
