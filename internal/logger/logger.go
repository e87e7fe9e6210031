package logger

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Format selects the encoder.
type Format int8

const (
	// JSONFormat writes one JSON object per line.
	JSONFormat Format = iota
	// ConsoleFormat writes human-readable lines.
	ConsoleFormat
)

// Configuration controls where and how much is logged.
type Configuration struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Stderr     bool   `yaml:"stderr"`
	File       string `yaml:"file"`
	Rotation   bool   `yaml:"rotation"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	LocalTime  bool   `yaml:"local_time"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfiguration logs info and above to stderr as console lines.
func DefaultConfiguration() Configuration {
	return Configuration{
		Level:   "info",
		Format:  "console",
		Stderr:  true,
		MaxSize: 100,
	}
}

// Check validates the configuration.
func (c Configuration) Check() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	if _, err := ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Rotation && c.File == "" {
		return fmt.Errorf("log rotation enabled but no log file set")
	}
	return nil
}

// New builds a logger from c. Output goes to stderr, to a file, or to both;
// with neither it returns a no-op logger.
func New(c Configuration) (*zap.Logger, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	level, _ := ParseLevel(c.Level)
	format, _ := ParseFormat(c.Format)

	var loggers []*zap.Logger
	if c.Stderr {
		loggers = append(loggers, NewWriterLogger(os.Stderr, level, format))
	}
	if c.File != "" {
		fl, err := NewFileLogger(c, level, format)
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, fl)
	}

	switch len(loggers) {
	case 0:
		return zap.NewNop(), nil
	case 1:
		return loggers[0], nil
	default:
		return NewMultiLogger(loggers...), nil
	}
}

// NewWriterLogger logs to w.
func NewWriterLogger(w io.Writer, level zapcore.Level, format Format) *zap.Logger {
	core := zapcore.NewCore(newEncoder(format), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddCaller())
}

// NewFileLogger logs JSON to c.File, rotated by lumberjack when c.Rotation
// is set.
func NewFileLogger(c Configuration, level zapcore.Level, format Format) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	var ws zapcore.WriteSyncer
	if c.Rotation {
		// lumberjack.Logger is already safe for concurrent use.
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
			LocalTime:  c.LocalTime,
			Compress:   c.Compress,
		})
	} else {
		f, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ws = zapcore.Lock(f)
	}
	return zap.New(zapcore.NewCore(newEncoder(format), ws, level), zap.AddCaller()), nil
}

// NewMultiLogger tees every entry to all loggers.
func NewMultiLogger(loggers ...*zap.Logger) *zap.Logger {
	cores := make([]zapcore.Core, 0, len(loggers))
	for _, l := range loggers {
		cores = append(cores, l.Core())
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func newEncoder(format Format) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == ConsoleFormat {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("log level %q invalid, must be one of: debug, info, warn, error", level)
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONFormat, nil
	case "console":
		return ConsoleFormat, nil
	default:
		return JSONFormat, fmt.Errorf("log format %q invalid, must be one of: json, console", format)
	}
}

type stdLogWriter struct {
	logger *zap.Logger
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	w.logger.Info(string(bytes.TrimSpace(p)))
	return len(p), nil
}

// RedirectStdLog sends the standard library logger's output to l.
func RedirectStdLog(l *zap.Logger) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(&stdLogWriter{logger: l.WithOptions(zap.AddCallerSkip(3))})
}
