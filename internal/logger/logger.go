package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide structured logger. It is a no-op logger until Init is called,
// so packages can log unconditionally (tests included).
var Log = zap.NewNop()

// Init sets up the logger at info level.
func Init() {
	if err := InitWithLevel("info"); err != nil {
		// "info" always parses
		panic(err)
	}
}

// InitWithLevel sets up a console logger at the given level ("debug", "info", "warn", "error").
func InitWithLevel(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = l.Named("skyview")
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
