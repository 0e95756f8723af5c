package upstream

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped by an Error when a response decoded cleanly but
// lacks a field the caller depends on.
var ErrMissingField = errors.New("missing expected field in response")

// Error reports a failed call to a third-party API: a transport failure,
// a non-2xx status, an undecodable body, or a response missing a required field.
type Error struct {
	Service    string // e.g. "jupiter", "airbills", "solscan"
	Op         string // e.g. "quote", "swap", "airtime"
	StatusCode int    // 0 when no response was received
	Message    string // upstream-provided error text, if any
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Service, e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s: request failed", e.Service, e.Op)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MalformedPayload builds an Error for a response field that was present but
// could not be decoded, such as a transaction that is not valid base64.
func MalformedPayload(service, op, field string, err error) *Error {
	return &Error{
		Service: service,
		Op:      op,
		Err:     fmt.Errorf("malformed %s in response: %w", field, err),
	}
}

// ValidationError reports a request field that was missing or malformed.
// It is returned before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingField builds an Error for a response that lacks the named field.
func MissingField(service, op, field string) *Error {
	return &Error{
		Service: service,
		Op:      op,
		Err:     fmt.Errorf("%w: %s", ErrMissingField, field),
	}
}
