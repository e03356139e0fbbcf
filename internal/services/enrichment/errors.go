package enrichment

import (
	"errors"
	"fmt"
)

// FailureKind classifies why metadata could not be extracted
type FailureKind string

const (
	FailureNoAPIKey  FailureKind = "no_api_key"
	FailureTransport FailureKind = "transport_error"
	FailureMalformed FailureKind = "malformed_json"
)

var (
	ErrNoAPIKey          = errors.New("no language model credential")
	ErrTransport         = errors.New("language model call failed")
	ErrMalformedResponse = errors.New("malformed language model response")
)

// Error is returned by Enricher.Enrich for every failure.
// errors.Is matches it against the sentinel for its Kind.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNoAPIKey:
		return e.Kind == FailureNoAPIKey
	case ErrTransport:
		return e.Kind == FailureTransport
	case ErrMalformedResponse:
		return e.Kind == FailureMalformed
	}
	return false
}

// KindOf returns the failure kind of err, or "" when err is not an enrichment error
func KindOf(err error) FailureKind {
	var enrichErr *Error
	if errors.As(err, &enrichErr) {
		return enrichErr.Kind
	}
	return ""
}
