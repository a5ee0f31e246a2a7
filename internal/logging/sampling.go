package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore samples entries below Error. Error and above always pass.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	errorCore, err := zapcore.NewIncreaseLevelCore(core, zapcore.ErrorLevel)
	if err != nil {
		// core cannot log at Error; there is nothing to protect.
		return zapcore.NewSamplerWithOptions(core, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter)
	}

	belowError := ceilingCore{Core: core, max: zapcore.WarnLevel}
	return zapcore.NewTee(
		errorCore,
		zapcore.NewSamplerWithOptions(belowError, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter),
	)
}

// ceilingCore drops entries above max.
type ceilingCore struct {
	zapcore.Core
	max zapcore.Level
}

func (c ceilingCore) Enabled(lvl zapcore.Level) bool {
	return lvl <= c.max && c.Core.Enabled(lvl)
}

func (c ceilingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level > c.max {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c ceilingCore) With(fields []zapcore.Field) zapcore.Core {
	return ceilingCore{Core: c.Core.With(fields), max: c.max}
}
