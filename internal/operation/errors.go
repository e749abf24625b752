package operation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/soarbridge/internal/operation/transport"
)

// ErrorType classifies operation errors for appropriate handling.
type ErrorType string

const (
	// ErrorTypeAuth indicates authentication or authorization failure (401, 403)
	ErrorTypeAuth ErrorType = "auth_error"

	// ErrorTypeNotFound indicates resource not found (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeValidation indicates invalid request data (400, 422)
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeRateLimit indicates rate limit exceeded (429)
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServer indicates server-side error (500, 502, 503, 504)
	ErrorTypeServer ErrorType = "server_error"

	// ErrorTypeTimeout indicates operation timeout
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeConnection indicates network/DNS error
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeTransform indicates response transform failure
	ErrorTypeTransform ErrorType = "transform_error"
)

// Error represents a command execution error with classification.
type Error struct {
	// Type classifies the error
	Type ErrorType

	// Message is the human-readable error description
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// SuggestText provides guidance on how to resolve the error.
	SuggestText string

	// RequestID from the external service
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements pkg/errors.UserVisibleError.
// Operation errors are always user-visible.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *Error) UserMessage() string {
	return e.Message
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// ClassifyHTTPError classifies an HTTP status code into an error type.
func ClassifyHTTPError(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeValidation
	}
}

// ErrorFromHTTPStatus creates an Error from a vendor status and the message
// parsed out of its body. An empty message falls back to the status text.
func ErrorFromHTTPStatus(statusCode int, message, requestID string) *Error {
	errType := ClassifyHTTPError(statusCode)

	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}

	err := &Error{
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		RequestID:  requestID,
	}

	switch errType {
	case ErrorTypeAuth:
		err.SuggestText = "Check the instance credentials and their permissions"
	case ErrorTypeNotFound:
		err.SuggestText = "Verify the resource exists and the base URL is correct"
	case ErrorTypeValidation:
		err.SuggestText = "Check the command arguments"
	case ErrorTypeRateLimit:
		err.SuggestText = "Wait for the vendor rate limit window or lower rate_limit for the instance"
	case ErrorTypeServer:
		err.SuggestText = "Try again later or contact the vendor"
	}

	return err
}

// FromTransportError converts a transport failure into an Error. Status
// errors keep the vendor body text as the message; other failures are
// classified by kind.
func FromTransportError(err error) error {
	te, ok := transport.AsTransportError(err)
	if !ok {
		return err
	}

	if te.StatusCode != 0 {
		opErr := ErrorFromHTTPStatus(te.StatusCode, strings.TrimSpace(string(te.Body)), te.RequestID)
		opErr.Cause = err
		return opErr
	}

	switch te.Type {
	case transport.ErrorTypeTimeout, transport.ErrorTypeCancelled:
		return &Error{
			Type:        ErrorTypeTimeout,
			Message:     te.Message,
			Cause:       err,
			SuggestText: "Increase the instance timeout or check vendor responsiveness",
		}
	case transport.ErrorTypeConnection:
		return NewConnectionError(err)
	case transport.ErrorTypeAuth:
		return &Error{Type: ErrorTypeAuth, Message: te.Message, Cause: err}
	default:
		return &Error{Type: ErrorTypeValidation, Message: te.Message, Cause: err}
	}
}

// NewTransformError creates an error for response field extraction failures.
func NewTransformError(expression string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeTransform,
		Message:     fmt.Sprintf("response transform failed: %s: %v", expression, cause),
		Cause:       cause,
		SuggestText: "Check the fields expressions configured for the instance",
	}
}

// NewConnectionError creates an error for network/DNS failures.
func NewConnectionError(cause error) *Error {
	msg := "connection failed"
	if cause != nil {
		msg = fmt.Sprintf("connection failed: %v", cause)
	}
	return &Error{
		Type:        ErrorTypeConnection,
		Message:     msg,
		Cause:       cause,
		SuggestText: "Check network connectivity, DNS resolution and the proxy setting",
	}
}
