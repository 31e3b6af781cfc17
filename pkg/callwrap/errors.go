package callwrap

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind names the category a raw call failure was classified into.
type ErrorKind int

const (
	// ErrorUnknown is a failure whose shape matched none of the recognized ones.
	ErrorUnknown ErrorKind = iota
	// ErrorNetwork is a call that was dispatched but got no response.
	ErrorNetwork
	// ErrorServer is a call the upstream answered with a failing status.
	ErrorServer
	// ErrorSetup is a call that could not be constructed or dispatched at all.
	ErrorSetup
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorServer:
		return "server"
	case ErrorSetup:
		return "setup"
	default:
		return "unknown"
	}
}

// ServerError is the failure shape a CallFunc returns when the upstream
// produced a response with a failing status.
type ServerError struct {
	Status     int
	StatusText string
	Body       interface{}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server responded with status %d: %s", e.Status, e.StatusText)
}

// TransportError is the failure shape a CallFunc returns when the request
// was dispatched but no response arrived.
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("no response from %s: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// SetupError is the failure shape a CallFunc returns when the request could
// not even be built or handed to the transport.
type SetupError struct {
	Cause error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("call could not be dispatched: %v", e.Cause)
}

func (e *SetupError) Unwrap() error {
	return e.Cause
}

// ClassifiedError tags a raw call failure with its category. It is
// observational: the original error is what propagates to the caller, and
// ClassifiedError wraps it so errors.Is/As still reach the cause.
type ClassifiedError struct {
	Kind       ErrorKind
	Status     int
	StatusText string
	Body       interface{}
	cause      error
}

func (e *ClassifiedError) Error() string {
	if e.Kind == ErrorServer {
		return fmt.Sprintf("remote call failed (%s): status %d %s", e.Kind, e.Status, e.StatusText)
	}
	return fmt.Sprintf("remote call failed (%s): %v", e.Kind, e.cause)
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Classify maps a raw call failure onto the error taxonomy. Timeout expiry
// surfaces here as a deadline error from the transport and lands under
// ErrorNetwork.
func Classify(err error) *ClassifiedError {
	var srv *ServerError
	if errors.As(err, &srv) {
		return &ClassifiedError{
			Kind:       ErrorServer,
			Status:     srv.Status,
			StatusText: srv.StatusText,
			Body:       srv.Body,
			cause:      err,
		}
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		return &ClassifiedError{Kind: ErrorNetwork, cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Kind: ErrorNetwork, cause: err}
	}

	var setup *SetupError
	if errors.As(err, &setup) {
		return &ClassifiedError{Kind: ErrorSetup, cause: err}
	}

	return &ClassifiedError{Kind: ErrorUnknown, cause: err}
}
