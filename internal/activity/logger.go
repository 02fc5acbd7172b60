package activity

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// loggerAdapter routes watermill logs into zerolog.
type loggerAdapter struct {
	log    zerolog.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter wraps log as a watermill.LoggerAdapter.
func NewLoggerAdapter(log zerolog.Logger) watermill.LoggerAdapter {
	return loggerAdapter{log: log}
}

func (l loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.with(l.log.Error().Err(err), fields).Msg(msg)
}

func (l loggerAdapter) Info(msg string, fields watermill.LogFields) {
	// watermill is chatty at info level about router internals
	l.with(l.log.Debug(), fields).Msg(msg)
}

func (l loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.with(l.log.Debug(), fields).Msg(msg)
}

func (l loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.with(l.log.Trace(), fields).Msg(msg)
}

func (l loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return loggerAdapter{log: l.log, fields: l.fields.Add(fields)}
}

func (l loggerAdapter) with(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	return ev.Fields(map[string]interface{}(l.fields.Add(fields)))
}
