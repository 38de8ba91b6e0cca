package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP boundary can map it to a status code
type Kind int

const (
	Unclassified Kind = iota
	InvalidInput
	EmptyInput
	TranscriptUnavailable
	EmptyTranscript
	TranscriptFetchFailed
	SummarizationFailed
	RateLimited
	Configuration
)

var kindNames = map[Kind]string{
	Unclassified:          "unclassified",
	InvalidInput:          "invalid_input",
	EmptyInput:            "empty_input",
	TranscriptUnavailable: "transcript_unavailable",
	EmptyTranscript:       "empty_transcript",
	TranscriptFetchFailed: "transcript_fetch_failed",
	SummarizationFailed:   "summarization_failed",
	RateLimited:           "rate_limited",
	Configuration:         "configuration",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by every collaborator in this module
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
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

// E builds an *Error
func E(kind Kind, op string, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the outermost *Error in the chain, or Unclassified
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unclassified
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to its response status. The mapping is total.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case TranscriptUnavailable:
		return http.StatusNotFound
	case InvalidInput, EmptyInput, EmptyTranscript:
		return http.StatusBadRequest
	case TranscriptFetchFailed, SummarizationFailed:
		return http.StatusBadGateway
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
