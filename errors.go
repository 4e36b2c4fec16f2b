package genchat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNoCredential indicates no API key was supplied by the user or the
	// environment. Configuration error: non-retryable until corrected.
	ErrNoCredential = errors.New("no API key configured")

	// ErrEmptyInput indicates a submission with empty or whitespace-only text.
	ErrEmptyInput = errors.New("empty input")

	// ErrBusy indicates a submit was attempted while a prior one is in flight.
	ErrBusy = errors.New("a request is already in flight")

	// ErrStreamNotReady indicates Message() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")
)
