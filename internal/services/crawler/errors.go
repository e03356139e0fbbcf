package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every *FetchError
	ErrTransport = errors.New("transport failure")

	// ErrNoContent is returned when no recognizable post structure is found
	ErrNoContent = errors.New("no recognizable post content")

	// ErrPlaceholderContent is returned for short "loading" placeholders left by
	// JavaScript-rendered pages. It matches ErrNoContent.
	ErrPlaceholderContent = fmt.Errorf("%w: loading placeholder", ErrNoContent)
)

// FailureKind classifies a transport failure
type FailureKind string

const (
	FailureNetwork    FailureKind = "network"
	FailureTimeout    FailureKind = "timeout"
	FailureHTTPStatus FailureKind = "http_status"
)

// FetchError describes a failed page fetch
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FailureHTTPStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) true for any FetchError
func (e *FetchError) Is(target error) bool {
	return target == ErrTransport
}
