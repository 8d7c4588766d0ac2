package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information at a level chosen by status code
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of a file localization
func LogDownload(l Logger, nodeID, url string, success bool, err error) {
	entry := l.WithFields(map[string]interface{}{
		"node_id": nodeID,
		"url":     url,
		"success": success,
	})

	if err != nil {
		entry.WithError(err).Error("Download failed")
	} else if success {
		entry.Info("Download completed")
	} else {
		entry.Debug("Download skipped")
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string) {}
func (n *nopLogger) Info(msg string) {}
func (n *nopLogger) Warn(msg string) {}
func (n *nopLogger) Error(msg string) {}
func (n *nopLogger) WithField(key string, value interface{}) Logger { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n *nopLogger) WithError(err error) Logger { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
