package notion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorResponse is the JSON body Notion returns for error statuses.
type ErrorResponse struct {
	Object    string `json:"object"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("notion API error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Notion API error codes this client dispatches on.
const (
	CodeObjectNotFound     = "object_not_found"
	CodeUnauthorized       = "unauthorized"
	CodeRestrictedResource = "restricted_resource"
	CodeRateLimited        = "rate_limited"
	CodeValidationError    = "validation_error"
)

// APIError wraps an ErrorResponse with transport-level context.
type APIError struct {
	StatusCode int
	Response   *ErrorResponse
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Response != nil {
		return e.Response.Error()
	}
	return fmt.Sprintf("notion API error %d", e.StatusCode)
}

// Code returns the Notion error code, or an empty string when the error
// body was unparseable.
func (e *APIError) Code() string {
	if e.Response != nil {
		return e.Response.Code
	}
	return ""
}

// Message returns the Notion error message, if any.
func (e *APIError) Message() string {
	if e.Response != nil {
		return e.Response.Message
	}
	return ""
}

// AsAPIError unwraps err to an *APIError if there is one in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// ErrCode returns the Notion error code carried by err, or empty.
func ErrCode(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code()
	}
	return ""
}

// ErrMessage returns the Notion error message carried by err, or empty.
func ErrMessage(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message()
	}
	return ""
}

// IsNotFound reports whether err is an object_not_found API error.
func IsNotFound(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusNotFound || apiErr.Code() == CodeObjectNotFound
	}
	return false
}

// IsRetryable reports whether err is worth retrying: rate limits,
// timeouts, HTTP 408, and server errors.
func IsRetryable(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
