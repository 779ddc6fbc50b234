// Package actionlog mirrors student action log entries to the grading
// server through a zap core.
package actionlog

import (
	"sync"

	"examclient/internal/remote"
	"examclient/pkg/utils/logger"

	"go.uber.org/zap/zapcore"
)

// Sink receives forwarded entries.
type Sink interface {
	EnqueueAction(entry remote.ActionLog)
}

// Forwarder buffers entries until a sink is bound, then hands every entry
// to it in order.
type Forwarder struct {
	mu      sync.Mutex
	sink    Sink
	backlog []remote.ActionLog
}

// NewForwarder creates an unbound forwarder.
func NewForwarder() *Forwarder {
	return &Forwarder{}
}

// Bind attaches the sink and replays the backlog.
func (f *Forwarder) Bind(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
	for _, entry := range f.backlog {
		sink.EnqueueAction(entry)
	}
	f.backlog = nil
}

func (f *Forwarder) forward(entry remote.ActionLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink == nil {
		f.backlog = append(f.backlog, entry)
		return
	}
	f.sink.EnqueueAction(entry)
}

// Core returns a zap core that forwards info and above from the action
// logger.
func (f *Forwarder) Core() zapcore.Core {
	return &core{LevelEnabler: zapcore.InfoLevel, fwd: f}
}

type core struct {
	zapcore.LevelEnabler
	fwd    *Forwarder
	fields []zapcore.Field
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.LoggerName != logger.ActionLoggerName || !c.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, c)
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}
	entry := remote.ActionLog{
		Level:     ent.Level.String(),
		Message:   ent.Message,
		Timestamp: ent.Time.UnixMilli(),
	}
	if len(enc.Fields) > 0 {
		entry.Fields = enc.Fields
	}
	c.fwd.forward(entry)
	return nil
}

func (c *core) Sync() error {
	return nil
}
