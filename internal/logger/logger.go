package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance
var Log *slog.Logger

type Options struct {
	IsDev     bool
	SentryDSN string
	// LogFile, when set, receives a JSON copy of every record and is rotated by size.
	LogFile string
}

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Optionally sends errors to Sentry and mirrors records to a rotating file
func Init(opts Options) {
	Log = slog.New(newHandler(os.Stdout, opts))
	slog.SetDefault(Log)
}

func newHandler(stdout io.Writer, opts Options) slog.Handler {
	var level slog.Level
	var handlers []slog.Handler

	// Base handler for stdout (always enabled)
	if opts.IsDev {
		level = slog.LevelDebug
		handlers = append(handlers, slog.NewTextHandler(stdout, &slog.HandlerOptions{
			Level: level,
		}))
	} else {
		level = slog.LevelInfo
		handlers = append(handlers, slog.NewJSONHandler(stdout, &slog.HandlerOptions{
			Level: level,
		}))
	}

	if opts.LogFile != "" {
		writer := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: level,
		}))
	}

	// Optional Sentry handler (sends errors only)
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	// Use multi-handler if we have multiple, otherwise use single
	if len(handlers) > 1 {
		return slogmulti.Fanout(handlers...)
	}
	return handlers[0]
}
