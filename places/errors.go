// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/places/utils/httputils"
)

// Argument errors. They are returned before any request is sent.
var (
	ErrEmptyInput    = errors.New("places: empty input")
	ErrEmptyPlaceID  = errors.New("places: empty place id")
	ErrMissingAPIKey = errors.New("places: missing API key")
)

// Error is a failure reported by, or while talking to, the places API.
type Error struct {
	Type    ErrorType
	Status  Status
	Message string
	Err     error
}

// ErrorType classifies an Error.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit too many requests.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded OVER_QUERY_LIMIT or billing problems.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound the place id is unknown.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest missing or malformed parameters.
	ErrorTypeInvalidRequest
	// ErrorTypeRequestDenied the key is invalid or lacks the Places API.
	ErrorTypeRequestDenied
	// ErrorTypeNetwork connection level failure or bad gateway.
	ErrorTypeNetwork
	// ErrorTypeServer UNKNOWN_ERROR reported by the API.
	ErrorTypeServer
	// ErrorTypeDecode the payload isn't what we expect.
	ErrorTypeDecode
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeRequestDenied:  "request_denied",
	ErrorTypeNetwork:        "network",
	ErrorTypeServer:         "server",
	ErrorTypeDecode:         "decode",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasType(err error, t ErrorType) bool {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == t
	}

	return false
}

// IsRateLimitError reports whether err is caused by rate limiting.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err means the key ran out of quota.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == ErrorTypeTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether err means the place does not exist.
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// ErrorTypeOf returns the ErrorType carried by err, ErrorTypeUnknown otherwise.
func ErrorTypeOf(err error) ErrorType {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type
	}

	return ErrorTypeUnknown
}

// ClassifyHTTPError maps a non 200 HTTP status to an Error.
func ClassifyHTTPError(statusCode int) *Error {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &Error{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &Error{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// ClassifyStatus maps the status field of a response body to an error.
// OK and ZERO_RESULTS are not errors.
func ClassifyStatus(status Status, message string) *Error {
	var e *Error

	switch status {
	case StatusOK, StatusZeroResults:
		return nil
	case StatusNotFound:
		e = &Error{Type: ErrorTypeNotFound, Message: "place not found"}
	case StatusOverQueryLimit:
		e = &Error{Type: ErrorTypeQuotaExceeded, Message: "over query limit"}
	case StatusRequestDenied:
		e = &Error{Type: ErrorTypeRequestDenied, Message: "request denied"}
	case StatusInvalidRequest:
		e = &Error{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
	case StatusUnknownError:
		e = &Error{Type: ErrorTypeServer, Message: "server error"}
	default:
		e = &Error{Type: ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status %q", string(status))}
	}

	e.Status = status
	if message != "" {
		e.Message += ": " + message
	}

	return e
}

// classifyTransportError wraps an error returned by http.Client.Do. The key is
// masked in the URL carried by err.
func classifyTransportError(err error) *Error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = httputils.Redact(urlErr.URL, "key")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	}

	return &Error{Type: ErrorTypeNetwork, Message: "request failed", Err: err}
}
