// Package report collects diagnostics raised during a sourcing cycle and
// distinguishes fatal failures from recoverable ones.
package report

import (
	"fmt"
	"sync"
	"time"

	"igsource/pkg/errors"
	"igsource/pkg/logger"
)

// Severity of a diagnostic
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
	SeverityFatal Severity = "fatal"
)

// Diagnostic is one reported message
type Diagnostic struct {
	Severity Severity
	Message  string
	Err      error
	At       time.Time
}

// Reporter receives diagnostics from the pipeline stages
type Reporter interface {
	// Panic records a fatal diagnostic and returns the error that must halt
	// the cycle
	Panic(msg string, err error) error
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
}

// FatalError is returned by Panic. Commands turn it into a non-zero exit.
type FatalError struct {
	Message string
	Err     error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// LogReporter writes diagnostics to a logger and keeps them for later
// inspection. Safe for concurrent use.
type LogReporter struct {
	logger      logger.Logger
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// NewLogReporter creates a reporter backed by log
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogReporter{logger: log}
}

func (r *LogReporter) record(sev Severity, msg string, err error) {
	r.mu.Lock()
	r.diagnostics = append(r.diagnostics, Diagnostic{Severity: sev, Message: msg, Err: err, At: time.Now()})
	r.mu.Unlock()
}

// withSource attaches the integration's own message when err carries one
func (r *LogReporter) withSource(err error) logger.Logger {
	l := r.logger
	if err == nil {
		return l
	}
	l = l.WithError(err)
	if errors.IsIntegrationError(err, "") {
		l = l.WithField("source_message", err.Error())
	}
	return l
}

// Panic logs msg as fatal and returns a *FatalError wrapping err
func (r *LogReporter) Panic(msg string, err error) error {
	r.record(SeverityFatal, msg, err)
	r.withSource(err).WithField("severity", string(SeverityFatal)).Error(msg)
	return &FatalError{Message: msg, Err: err}
}

// Error logs a recoverable failure
func (r *LogReporter) Error(msg string, err error) {
	r.record(SeverityError, msg, err)
	r.withSource(err).Error(msg)
}

// Warn logs a warning
func (r *LogReporter) Warn(msg string) {
	r.record(SeverityWarn, msg, nil)
	r.logger.Warn(msg)
}

// Info logs an informational message
func (r *LogReporter) Info(msg string) {
	r.record(SeverityInfo, msg, nil)
	r.logger.Info(msg)
}

// Diagnostics returns a copy of everything reported so far
func (r *LogReporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Count returns the number of diagnostics with the given severity
func (r *LogReporter) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
