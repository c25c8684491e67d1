package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of page fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (other than 429).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a success response whose body is not a search result.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassStatus represents any other non-success status (1xx/3xx).
	ErrorClassStatus ErrorClass = "status"
)

// PageError describes why a single catalog page could not be fetched.
type PageError struct {
	Page       int
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("page %d: %s error (status %d): %s: %v",
			e.Page, e.ErrorClass, e.StatusCode, e.Message, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("page %d: %s error (status %d): %s",
			e.Page, e.ErrorClass, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("page %d: %s error: %s: %v",
			e.Page, e.ErrorClass, e.Message, e.Err)
	default:
		return fmt.Sprintf("page %d: %s error: %s", e.Page, e.ErrorClass, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-success HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	case status < 200 || status >= 300:
		return ErrorClassStatus
	default:
		return ""
	}
}

// classOf extracts the error class from err, or "" if err is not a PageError.
func classOf(err error) ErrorClass {
	var pe *PageError
	if errors.As(err, &pe) {
		return pe.ErrorClass
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and malformed bodies will not change on a second attempt
		return false
	}
}
