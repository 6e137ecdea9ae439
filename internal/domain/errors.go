package domain

import (
	"errors"
	"fmt"
)

// Hints attached to a FetchError.
const (
	HintInvalidToken = "invalid token"
	HintRateLimit    = "rate limit exceeded"
	HintMissingToken = "missing token"
	HintMalformed    = "malformed response"
	HintNetwork      = "network error"
	HintAPIError     = "GitHub API error"
)

// FetchError reports a failed search call.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	StatusCode int
	Hint       string
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	msg := "fetch repositories"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Hint)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsRateLimit reports whether the failure was caused by an exhausted rate limit.
func (e *FetchError) IsRateLimit() bool {
	return e.Hint == HintRateLimit
}

// AnalysisError reports that the analyzer could not work with its input.
type AnalysisError struct {
	Message string
}

func (e *AnalysisError) Error() string {
	return "analyze repositories: " + e.Message
}

// ErrNoRecords is the AnalysisError returned for an empty record sequence.
var ErrNoRecords = &AnalysisError{Message: "no repositories to analyze"}

// QueryError reports an invalid SearchQuery field.
type QueryError struct {
	Field   string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AsFetchError returns the FetchError in err's chain, if any.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}

// AsAnalysisError returns the AnalysisError in err's chain, if any.
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	ok := errors.As(err, &ae)
	return ae, ok
}

// AsQueryError returns the QueryError in err's chain, if any.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	ok := errors.As(err, &qe)
	return qe, ok
}
