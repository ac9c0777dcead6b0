package logging

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger.
type Logger struct {
	*zap.Logger
}

// Config selects level, encoding and development mode.
type Config struct {
	Level       string
	Format      string // json or console
	Development bool
}

// DefaultConfig is info level JSON to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	format := cfg.Format
	if format != "console" {
		format = "json"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:       cfg.Development,
		DisableCaller:     !cfg.Development,
		DisableStacktrace: !cfg.Development,
		Encoding:          format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{l}, nil
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_DEV.
func FromEnv() (*Logger, error) {
	cfg := DefaultConfig()
	if os.Getenv("LOG_DEV") == "true" {
		cfg = Config{Level: "debug", Format: "console", Development: true}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return New(cfg)
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(NewNop())
}

// SetGlobal replaces the process-wide logger.
func SetGlobal(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// L returns the process-wide logger.
func L() *Logger {
	return global.Load()
}
