package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"StockSentiment/internal/model"
)

// DefaultNotConfiguredPhrase is matched case-insensitively against a
// sentiment result's details to detect an unconfigured backend integration.
const DefaultNotConfiguredPhrase = "not configured"

// NotConfiguredCode is the structured code a backend may send instead of
// relying on the details wording.
const NotConfiguredCode = "not_configured"

// NetworkError means no response reached the client.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError carries a backend-reported failure. Message is shown verbatim.
// Status is the HTTP status, which is 200 when the backend embeds an error
// in an otherwise successful payload.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// TimeoutError means a fetch did not settle within its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: timed out after %s", e.Op, e.After)
	}
	return fmt.Sprintf("%s: timed out", e.Op)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// Classify converts raw transport failures into the error taxonomy.
// Errors that are already classified are returned unchanged.
func Classify(op string, after time.Duration, err error) error {
	if err == nil {
		return nil
	}
	var (
		te *TimeoutError
		se *ServerError
		ne *NetworkError
	)
	if errors.As(err, &te) || errors.As(err, &se) || errors.As(err, &ne) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Op: op, After: after}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}

// Describe returns the user-visible message for a feed or validation error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		se *ServerError
		te *TimeoutError
		ne *NetworkError
	)
	switch {
	case errors.Is(err, model.ErrEmptyTicker):
		return "Please enter a stock ticker."
	case errors.As(err, &se):
		return se.Message
	case errors.As(err, &te):
		if te.After > 0 {
			return fmt.Sprintf("Request timed out after %s.", te.After)
		}
		return "Request timed out."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out."
	case errors.Is(err, context.Canceled):
		return "Request canceled."
	case errors.As(err, &ne):
		return "No response from server. Is the backend running?"
	default:
		return err.Error()
	}
}

// IsNotConfigured reports whether a sentiment result signals that the
// backend's news integration is unconfigured. A structured error code wins;
// otherwise details are matched against phrase case-insensitively.
func IsNotConfigured(r *model.SentimentResult, phrase string) bool {
	if r == nil {
		return false
	}
	if strings.EqualFold(r.ErrorCode, NotConfiguredCode) {
		return true
	}
	if phrase == "" {
		phrase = DefaultNotConfiguredPhrase
	}
	return strings.Contains(strings.ToLower(r.Details), strings.ToLower(phrase))
}
