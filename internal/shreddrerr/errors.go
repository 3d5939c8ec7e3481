// Package shreddrerr defines the error taxonomy shared across the ingestion
// and indexing pipeline.
package shreddrerr

import (
	"errors"
	"fmt"
)

// Kind classifies an IndexError without requiring a distinct Go error type
// per failure mode.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindParse
	KindLock
	KindNotFound
	KindEmptyBody
	KindUnsupportedVersion
	KindExternalTool
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindLock:
		return "lock"
	case KindNotFound:
		return "not_found"
	case KindEmptyBody:
		return "empty_body"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindExternalTool:
		return "external_tool"
	default:
		return "unknown"
	}
}

// IndexError wraps a failure with the component it occurred in and a kind
// from the taxonomy, so callers can errors.Is/As against Kind while %w
// preserves the underlying cause.
type IndexError struct {
	Kind      Kind
	Component string
	Err       error
}

func (e *IndexError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// New builds an IndexError.
func New(kind Kind, component string, err error) *IndexError {
	return &IndexError{Kind: kind, Component: component, Err: err}
}

// Newf builds an IndexError with a formatted cause.
func Newf(kind Kind, component, format string, args ...any) *IndexError {
	return &IndexError{Kind: kind, Component: component, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err is an IndexError of the given kind.
func Is(err error, kind Kind) bool {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Kind == kind
	}
	return false
}
