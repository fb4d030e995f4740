package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger and hashes contact details before they
// reach the output.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        bool
}

// New builds a logger. mode is "prod" for JSON output or anything else for
// the console encoder; level is a zap level name ("debug", "info", ...).
func New(mode, level string, redact bool) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = levelEncoder(os.Stderr.Fd())
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), redact: redact}, nil
}

// levelEncoder colors levels only when fd is a terminal
func levelEncoder(fd uintptr) zapcore.LevelEncoder {
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.CapitalLevelEncoder
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger
func FromZap(z *zap.Logger, redact bool) *Logger {
	return &Logger{SugaredLogger: z.Sugar(), redact: redact}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.sanitizeKVs(keysAndValues)...), redact: l.redact}
}

// Timing logs the start of an operation and returns a func that logs its
// duration when called.
func (l *Logger) Timing(operation string) func() {
	start := time.Now()
	l.Debug("starting", "operation", operation)
	return func() {
		l.Debug("completed", "operation", operation, "took", time.Since(start))
	}
}

// missingValue pairs a trailing key so zap does not log its own error entry
const missingValue = "(MISSING)"

func (l *Logger) sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || (!l.redact && len(kv)%2 == 0) {
		return kv
	}
	out := make([]interface{}, 0, len(kv)+1)
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i], missingValue)
			break
		}
		val := kv[i+1]
		if l.redact {
			val = sanitizeValue(strings.ToLower(toString(kv[i])), val)
		}
		out = append(out, kv[i], val)
	}
	return out
}

func sanitizeValue(key string, val interface{}) interface{} {
	if !strings.Contains(key, "email") {
		return val
	}
	switch v := val.(type) {
	case []string:
		hashed := make([]string, len(v))
		for i, s := range v {
			hashed[i] = hashValue(s)
		}
		return hashed
	default:
		return hashValue(val)
	}
}

// hashValue keeps addresses correlatable across log lines without printing them
func hashValue(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(raw)))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
