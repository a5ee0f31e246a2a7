package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a logger that records every level, TraceLevel
// included, and the recorded entries.
func NewTestLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(TraceLevel)
	return zap.New(core), logs
}

// FieldValue returns the value of key on the first entry with message msg.
func FieldValue(logs *observer.ObservedLogs, msg, key string) (any, bool) {
	for _, entry := range logs.FilterMessage(msg).All() {
		if v, ok := entry.ContextMap()[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// CountAt returns how many entries were logged at level.
func CountAt(logs *observer.ObservedLogs, level zapcore.Level) int {
	return logs.Filter(func(e observer.LoggedEntry) bool { return e.Level == level }).Len()
}
