package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/masq"
)

// Logger defines a standard interface for logging.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// Warnw logs msg at warn level with structured key/value attributes
	// (alternating key, value per slog's own Warn convention). This is the
	// only call shape masq's field-name redaction can act on, since the
	// Printf-style methods above never produce a named slog attribute.
	Warnw(msg string, kv ...interface{})
}

// SlogLogger is a wrapper around Go's structured logger.
type SlogLogger struct {
	*slog.Logger
}

// NewLogger creates a new logger instance based on the specified level.
//
// CENC keys and KIDs flow through this package's call sites as plain
// strings (stream config, decryptor invocations); the handler redacts any
// attribute whose field name looks like key material so a log line never
// carries a key in the clear.
func NewLogger(level string) Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: keyRedactor(),
	})
	return &SlogLogger{slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// keyRedactor masks decryption keys so they never reach stdout verbatim.
func keyRedactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("key"),
		masq.WithFieldName("Key"),
		masq.WithFieldName("keys"),
		masq.WithFieldName("Keys"),
		masq.WithFieldName("keyMap"),
		masq.WithFieldName("KeyMap"),
	)
}

// Debugf logs a message at the debug level.
func (l *SlogLogger) Debugf(format string, v ...interface{}) {
	l.Debug(fmt.Sprintf(format, v...))
}

// Infof logs a message at the info level.
func (l *SlogLogger) Infof(format string, v ...interface{}) {
	l.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a message at the warn level.
func (l *SlogLogger) Warnf(format string, v ...interface{}) {
	l.Warn(fmt.Sprintf(format, v...))
}

// Warnw logs msg at the warn level with structured key/value attributes,
// routed through the same handler (and so the same masq redaction) as
// every other level.
func (l *SlogLogger) Warnw(msg string, kv ...interface{}) {
	l.Warn(msg, kv...)
}

// Errorf logs a message at the error level.
func (l *SlogLogger) Errorf(format string, v ...interface{}) {
	l.Error(fmt.Sprintf(format, v...))
}
