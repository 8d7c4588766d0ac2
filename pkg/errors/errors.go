package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeAPI         ErrorType = "api"
	ErrorTypeTooLarge    ErrorType = "too_large"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an HTTP or Graph API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// Stage names the pipeline step an IntegrationError came from.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageNode     Stage = "node"
	StageDownload Stage = "download"
	StageRefresh  Stage = "refresh"
)

// IntegrationError is a failure talking to an external integration during
// a sourcing cycle. Its message is prefixed with the integration name so it
// can be shown to the user verbatim.
type IntegrationError struct {
	Integration string
	Stage       Stage
	NodeID      string
	Err         error
}

// NewIntegrationError wraps err for the given integration and stage.
func NewIntegrationError(integration string, stage Stage, err error) *IntegrationError {
	return &IntegrationError{Integration: integration, Stage: stage, Err: err}
}

func (e *IntegrationError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Integration, msg)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// IsIntegrationError reports whether err wraps an IntegrationError from stage.
// An empty stage matches any stage.
func IsIntegrationError(err error, stage Stage) bool {
	var ie *IntegrationError
	if !errors.As(err, &ie) {
		return false
	}
	return stage == "" || ie.Stage == stage
}
