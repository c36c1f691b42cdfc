// Package logger wires the process-wide zap logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Init builds the global logger and installs it with zap.ReplaceGlobals.
// format is "json" or "console"; an unknown level falls back to info.
func Init(levelName, format string) *zap.Logger {
	level.SetLevel(parseLevel(levelName))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)
	l := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(l)
	return l
}

// SetDebug toggles debug output at runtime (/dbg_on, /dbg_off).
func SetDebug(on bool) {
	if on {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

// DebugEnabled reports whether debug entries are currently written.
func DebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

func parseLevel(name string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
