package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Debug mode also attaches stack traces to
// error entries, which carry the errs stacks of internal failures.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"
	stacktraceKey := ""

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
		stacktraceKey = "stacktrace"
	}

	cfg := zap.Config{
		Encoding:          encoding,
		Level:             zap.NewAtomicLevelAt(level),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !debug,
		InitialFields:     map[string]any{"app": "skillmatch"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			StacktraceKey:  stacktraceKey,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}

	return cfg.Build()
}
