package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootCmdConfig struct {
	verbose bool
	logger  *zap.Logger
}

// Logger returns the logger of the command, writing to stderr
// every entry when verbose and only warnings and errors otherwise.
func (rc *rootCmdConfig) Logger() *zap.Logger {
	if rc.logger != nil {
		return rc.logger
	}
	level := zapcore.WarnLevel
	if rc.verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	rc.logger = l
	return l
}

func (rc *rootCmdConfig) Logf(format string, a ...interface{}) {
	rc.Logger().Sugar().Infof(format, a...)
}
