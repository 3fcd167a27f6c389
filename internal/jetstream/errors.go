package jetstream

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine
var (
	// ErrJetStreamNotEnabled indicates the server does not have JetStream available
	ErrJetStreamNotEnabled = errors.New("JetStream is not enabled on the server")

	// ErrNoResponse indicates a request timed out or had no responder
	ErrNoResponse = errors.New("no response from JetStream server")

	// ErrInvalidAck indicates a publish reply could not be parsed or is missing required fields
	ErrInvalidAck = errors.New("invalid JetStream publish ack")

	// ErrStreamMismatch indicates a publish was acknowledged by a different stream than expected
	ErrStreamMismatch = errors.New("ack received from unexpected stream")

	// ErrSubjectRequired indicates that a subject must be provided
	ErrSubjectRequired = errors.New("subject is required")

	// ErrStreamNameRequired indicates that a stream name must be provided
	ErrStreamNameRequired = errors.New("stream name is required")

	// ErrDurableRequired indicates a pull subscription was requested without a durable name
	ErrDurableRequired = errors.New("durable name is required")

	// ErrNoMatchingStream indicates subject-based stream resolution did not find exactly one stream
	ErrNoMatchingStream = errors.New("no single stream matches subject")

	// ErrSubjectMismatch indicates the requested subject conflicts with an
	// existing durable consumer's filter subject
	ErrSubjectMismatch = errors.New("subject does not match consumer filter subject")

	// ErrInvalidAPIResponse indicates a reply that does not conform to the JetStream API
	ErrInvalidAPIResponse = errors.New("invalid JetStream API response")
)

// APIError is the error envelope carried in JetStream API responses.
// Any non-nil envelope is a failure regardless of transport success.
type APIError struct {
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("jetstream API error: code %d: %s", e.Code, e.Description)
}

// NotFound reports whether the server answered with a 404-style code
func (e *APIError) NotFound() bool {
	return e.Code == 404
}
