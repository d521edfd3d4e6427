package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is recorded when a response frame has blank content.
	ErrEmptyResponse = errors.New("empty response")
	// ErrUnterminatedStream is recorded when the transport closes before a
	// terminal frame arrives. It is a soft completion, not a failure.
	ErrUnterminatedStream = errors.New("stream ended without a terminal frame")
)

// TransportError wraps a failure of the underlying connection or a
// non-success status from the server.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProducerError is an explicit error frame from the orchestrator.
type ProducerError struct {
	Message string
}

func (e *ProducerError) Error() string {
	return "producer error: " + e.Message
}
