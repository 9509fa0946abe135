package session

import "go.uber.org/zap"

// Diagnostics receives one-shot debug messages. Each session owns its own
// sink, so "first time" means first time in this session.
type Diagnostics interface {
	Once(key, msg string, fields ...zap.Field)
}

type onceLogger struct {
	log  *zap.Logger
	seen map[string]bool
}

// NewOnceLogger logs each key at most once.
func NewOnceLogger(log *zap.Logger) Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &onceLogger{log: log, seen: make(map[string]bool)}
}

func (o *onceLogger) Once(key, msg string, fields ...zap.Field) {
	if o.seen[key] {
		return
	}
	o.seen[key] = true
	o.log.Debug(msg, fields...)
}
