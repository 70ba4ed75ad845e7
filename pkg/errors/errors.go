package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeRemoteAPI     ErrorType = "remote_api"
	ErrorTypeDataIntegrity ErrorType = "data_integrity"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d): %s (url: %s)", e.Type, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NetworkError reports a failed connection, timeout or non-success status while fetching url.
func NetworkError(url string, code int, err error) *Error {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	} else if code != 0 {
		msg = fmt.Sprintf("unexpected status code: %d", code)
	}
	return &Error{Type: ErrorTypeNetwork, Message: msg, Code: code, URL: url, Err: err}
}

// RemoteAPIError reports a request the remote service rejected with its own code and message.
func RemoteAPIError(code int, message string) *Error {
	return &Error{Type: ErrorTypeRemoteAPI, Message: message, Code: code}
}

// AuthError reports a failed OAuth handshake or rejected credentials.
func AuthError(message string, err error) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Type: ErrorTypeAuth, Message: message, Err: err}
}

// DataIntegrityError reports a remote record missing data it must carry.
func DataIntegrityError(message string) *Error {
	return &Error{Type: ErrorTypeDataIntegrity, Message: message}
}

// Is reports whether err wraps an *Error of the given type.
func Is(err error, errorType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeRemoteAPI, ErrorTypeDataIntegrity:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// TypeForStatus maps an HTTP status code to the error type the clients report for it.
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
