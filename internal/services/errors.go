package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGenerationUnavailable is returned whenever the generation service produced no usable content.
	ErrGenerationUnavailable = errors.New("ai generation unavailable")
	ErrQuestionNotFound      = errors.New("question not found")
	// ErrQuestionClosed is a permission error: closed questions accept no new answers.
	ErrQuestionClosed  = errors.New("question is closed")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrAnswerNotFound  = errors.New("answer not found")
	ErrNotAIAnswer     = errors.New("answer is not machine-generated")
	ErrNotEndorser     = errors.New("user may not endorse answers")
	ErrInvalidResponse = errors.New("invalid generation response")
)

// GenerationError describes one failed call to the generation service.
// It always matches ErrGenerationUnavailable under errors.Is.
type GenerationError struct {
	StatusCode int    // HTTP status code, 0 for transport or local failures
	Message    string // Human-readable message
	Retryable  bool   // Whether the failure is transient
	Cause      error
}

func (e *GenerationError) Error() string {
	var parts []string
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGenerationUnavailable}
	}
	return []error{ErrGenerationUnavailable, e.Cause}
}

// IsRetryable reports whether the call may succeed if repeated after a backoff.
func (e *GenerationError) IsRetryable() bool {
	return e.Retryable
}

// quotaMarkers are matched case-insensitively against error bodies.
var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"resource has been exhausted",
	"rate limit",
	"too many requests",
}

func mentionsQuota(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsRetryableStatus reports whether an HTTP status signals a transient failure.
func IsRetryableStatus(code int) bool {
	return code == 408 || code == 429 || (code >= 500 && code <= 599)
}

// classifyHTTPFailure maps a non-2xx response to a GenerationError.
func classifyHTTPFailure(statusCode int, body string) *GenerationError {
	retryable := IsRetryableStatus(statusCode) || mentionsQuota(body)

	var message string
	switch {
	case statusCode == 429 || mentionsQuota(body):
		message = "rate limited"
	case statusCode >= 500:
		message = "server error"
	case statusCode == 408:
		message = "request timeout"
	case statusCode == 401 || statusCode == 403:
		message = "authentication failed"
	case statusCode == 404:
		message = "model or endpoint not found"
	case statusCode == 400:
		message = "bad request"
	default:
		message = "unexpected status"
	}

	if len(body) > 300 {
		body = body[:300] + "..."
	}

	return &GenerationError{
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
		Cause:      errors.New(strings.TrimSpace(body)),
	}
}
