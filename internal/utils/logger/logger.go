package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "info"

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// Init builds the process-wide console logger at the given level.
func Init(lvl string) error {
	if err := SetLogLevel(lvl); err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.CallerKey = ""

	z, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	mu.Lock()
	global = z.Sugar()
	mu.Unlock()
	return nil
}

// SetLogLevel changes the level of the running logger. An empty level
// selects DefaultLevel.
func SetLogLevel(lvl string) error {
	if lvl == "" {
		lvl = DefaultLevel
	}
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", lvl, err)
	}
	level.SetLevel(parsed)
	return nil
}

// Level returns the current level name.
func Level() string {
	return level.Level().String()
}

// Logger returns the global logger. It never returns nil: before Init
// is called a no-op logger is handed out.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger().Sync()
}
