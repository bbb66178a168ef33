package ai

import (
	"errors"
	"fmt"
)

// Kind tags why a completion failed
type Kind string

const (
	// KindRequest means the request could not be built (empty persona, unknown task)
	KindRequest Kind = "request"
	// KindTransport covers network failures, timeouts and cancellation
	KindTransport Kind = "transport"
	// KindStatus means the endpoint answered with a non-success HTTP status
	KindStatus Kind = "status"
	// KindMalformed means the body could not be decoded or had no choices
	KindMalformed Kind = "malformed"
	// KindEmpty means the first choice carried no text
	KindEmpty Kind = "empty"
)

// Error is the only error type returned by Client completions
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s completion failed (%s)", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not a completion error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// TextOr returns text when err is nil. Otherwise it returns the fallback
// tagged with the failure kind, so a placeholder is never mistaken for output.
func TextOr(text string, err error, fallback string) string {
	if err == nil {
		return text
	}
	kind := KindOf(err)
	if kind == "" {
		kind = "error"
	}
	return fmt.Sprintf("[%s] %s", kind, fallback)
}
