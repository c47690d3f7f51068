package main

import (
	"go.uber.org/zap"
)

// newLogger builds the zap.SugaredLogger every subcommand logs
// through (SPEC_FULL.md §4.J): info level by default, debug under
// --verbose, matching zap's own NewProduction/NewDevelopment split.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// sugaredLogger adapts *zap.SugaredLogger to pipeline.Logger and
// indexbuild.Warner: both want a printf-style sink, nothing richer.
type sugaredLogger struct {
	l *zap.SugaredLogger
}

func (s sugaredLogger) Infof(format string, args ...any) { s.l.Infof(format, args...) }
func (s sugaredLogger) Warnf(format string, args ...any) { s.l.Warnf(format, args...) }
func (s sugaredLogger) Warn(format string, args ...any)  { s.l.Warnf(format, args...) }
