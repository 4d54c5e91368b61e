package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Output formats accepted by SetFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type requestIDKey struct{}

var (
	levelVar = new(slog.LevelVar)
	loggerMu sync.RWMutex
	logger   = newLogger(os.Stdout, FormatText)
)

func init() {
	levelVar.Set(slog.LevelInfo)
}

func newLogger(w io.Writer, format string) *slog.Logger {
	return slog.New(newHandler(w, format))
}

func handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
}

func newHandler(w io.Writer, format string) slog.Handler {
	if format == FormatJSON {
		return slog.NewJSONHandler(w, handlerOptions())
	}
	return slog.NewTextHandler(w, handlerOptions())
}

// SetLevel updates the minimum logging level accepted by the global logger.
// Supported levels are "debug", "info", "warn", and "error". Values are case-insensitive.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		levelVar.Set(slog.LevelInfo)
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

// SetFormat switches the global logger between logfmt text and JSON output on stdout.
func SetFormat(format string) error {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatText:
		setLogger(newLogger(os.Stdout, FormatText))
	case FormatJSON:
		setLogger(newLogger(os.Stdout, FormatJSON))
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

// Logger returns the underlying slog.Logger instance.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func setLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// ReplaceLogger installs a custom slog.Logger.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	setLogger(l)
}

// WithRequestID returns a context carrying id; log calls made with it include request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(withContext(ctx), requestIDKey{}, id)
}

// RequestID extracts the request id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Info logs a message at the info level using the global logger.
func Info(ctx context.Context, msg string, args ...any) {
	write(ctx, slog.LevelInfo, msg, args)
}

// Debug logs a message at the debug level using the global logger.
func Debug(ctx context.Context, msg string, args ...any) {
	write(ctx, slog.LevelDebug, msg, args)
}

// Warn logs a message at the warn level using the global logger.
func Warn(ctx context.Context, msg string, args ...any) {
	write(ctx, slog.LevelWarn, msg, args)
}

// Error logs a message at the error level using the global logger.
func Error(ctx context.Context, msg string, args ...any) {
	write(ctx, slog.LevelError, msg, args)
}

func write(ctx context.Context, level slog.Level, msg string, args []any) {
	ctx = withContext(ctx)
	if id := RequestID(ctx); id != "" {
		args = append([]any{"request_id", id}, args...)
	}
	Logger().Log(ctx, level, msg, args...)
}

func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Sync ensures any buffered log entries are flushed. The slog handlers write
// directly to stdout, so Sync is usually a no-op.
func Sync() error {
	type syncer interface {
		Sync() error
	}
	if s, ok := Logger().Handler().(syncer); ok {
		return s.Sync()
	}
	return nil
}
