package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorClass says why an upstream call failed.
type ErrorClass string

const (
	// ErrorClassNetwork: the request never produced a response.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout: the per-call deadline ran out.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassStatus: the upstream answered with a non-2xx status.
	ErrorClassStatus ErrorClass = "status"

	// ErrorClassDecode: the body was not the JSON we expected.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassPayload: the body decoded but lacked a required field.
	ErrorClassPayload ErrorClass = "payload"
)

// Error is returned by the hard-failing client calls.
type Error struct {
	Endpoint   string
	StatusCode int
	Class      ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s %s error (status %d): %v", e.Endpoint, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s %s error: %v", e.Endpoint, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyTransportError separates timeouts from other transport failures.
func classifyTransportError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}
