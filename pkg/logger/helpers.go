package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogArchiveEntry records one photo written (or skipped) into an archive
func LogArchiveEntry(l Logger, blog, postID, entryName string, size int, err error) {
	fields := map[string]interface{}{
		"blog":    blog,
		"post_id": postID,
		"entry":   entryName,
	}

	if err != nil {
		l.WithError(err).WarnWithFields("Photo skipped", fields)
		return
	}

	fields["size"] = size
	l.DebugWithFields("Photo archived", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	scoped := l.WithField("component", component)
	if len(config) > 0 {
		scoped = scoped.WithFields(config)
	}
	scoped.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
