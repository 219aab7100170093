// Package logger provides structured logging for the calipers CLI using
// zap, with optional rotated file output. The evaluation engine itself
// never logs; only the command-line collaborator does.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures logger construction.
type Options struct {
	Level string // debug, info, warn, error
	File  string // optional log file; rotated when set
}

// New builds a logger writing to stderr and, when configured, to a
// rotated log file. Evaluation output goes to stdout, so logging stays
// on stderr to keep reports pipeable.
func New(opts Options) *zap.SugaredLogger {
	lvl := parseLevel(opts.Level)

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), lvl),
	}

	if opts.File != "" {
		fileCfg := encCfg
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		w := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(w), lvl))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
