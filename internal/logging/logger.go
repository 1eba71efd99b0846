package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/nerrad567/knxip/internal/config"
)

// Logger wraps zerolog.Logger with this module's conventions for
// level/format selection and default fields.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines
//     (zerolog.Logger itself is immutable; With returns a new value).
type Logger struct {
	zerolog.Logger
}

// New creates a Logger from a LoggingConfig. Output goes to stdout or
// stderr in JSON or console-pretty form; if cfg.File.Path is set, the
// same records are also written to a lumberjack-rotated file,
// regardless of the console format chosen.
func New(cfg config.LoggingConfig, version string) *Logger {
	var writers []io.Writer

	if strings.ToLower(cfg.Format) == "console" {
		writers = append(writers, zerolog.ConsoleWriter{Out: consoleOutput(cfg), TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, consoleOutput(cfg))
	}

	if cfg.File.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		})
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}

	base := zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", "knxip").
		Str("version", version).
		Logger()

	return &Logger{Logger: base}
}

func consoleOutput(cfg config.LoggingConfig) io.Writer {
	if strings.ToLower(cfg.Output) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel converts a string log level to a zerolog.Level.
//
// Supported levels: debug, info, warn, error. Defaults to info if
// unrecognised.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a new Logger carrying additional default fields, given
// as alternating key/value pairs (kv[0] must be a string key, kv[1]
// its value, and so on). Any trailing unpaired argument is ignored.
//
// Example:
//
//	tunnelLog := logger.With("component", "tunnel")
//	tunnelLog.Info().Msg("connected") // includes component=tunnel
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.Logger.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{Logger: ctx.Logger()}
}

// Default creates a logger for use before configuration is loaded:
// JSON to stdout at info level. It should only be used during early
// startup before a Config is available.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
