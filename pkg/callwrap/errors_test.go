package callwrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestClassify_ServerErrorCarriesResponseFields(t *testing.T) {
	err := &ServerError{Status: 502, StatusText: "Bad Gateway", Body: "upstream down"}

	ce := Classify(err)

	if ce.Kind != ErrorServer {
		t.Fatalf("Expected server kind, got %v", ce.Kind)
	}
	if ce.Status != 502 || ce.StatusText != "Bad Gateway" || ce.Body != "upstream down" {
		t.Errorf("Response fields not carried: %+v", ce)
	}
	if !errors.Is(ce, err) {
		t.Error("Classified error must wrap the original")
	}
}

func TestClassify_WrappedServerError(t *testing.T) {
	inner := &ServerError{Status: 500, StatusText: "Internal Server Error"}
	err := fmt.Errorf("call to /jobs: %w", inner)

	if ce := Classify(err); ce.Kind != ErrorServer || ce.Status != 500 {
		t.Errorf("Wrapped server error misclassified: %+v", ce)
	}
}

func TestClassify_TransportErrorIsNetwork(t *testing.T) {
	err := &TransportError{URL: "http://host/x", Cause: fmt.Errorf("connection reset")}

	if ce := Classify(err); ce.Kind != ErrorNetwork {
		t.Errorf("Expected network kind, got %v", ce.Kind)
	}
}

func TestClassify_NetErrorIsNetwork(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "example.invalid"}

	if ce := Classify(err); ce.Kind != ErrorNetwork {
		t.Errorf("Expected network kind for net.Error, got %v", ce.Kind)
	}
}

func TestClassify_DeadlineExceededIsNetwork(t *testing.T) {
	err := fmt.Errorf("call timed out: %w", context.DeadlineExceeded)

	if ce := Classify(err); ce.Kind != ErrorNetwork {
		t.Errorf("Expected network kind for timeout expiry, got %v", ce.Kind)
	}
}

func TestClassify_SetupError(t *testing.T) {
	err := &SetupError{Cause: fmt.Errorf("invalid URL")}

	if ce := Classify(err); ce.Kind != ErrorSetup {
		t.Errorf("Expected setup kind, got %v", ce.Kind)
	}
}

func TestClassify_UnrecognizedShapeIsUnknown(t *testing.T) {
	err := errors.New("something else entirely")

	ce := Classify(err)
	if ce.Kind != ErrorUnknown {
		t.Errorf("Expected unknown kind, got %v", ce.Kind)
	}
	if !errors.Is(ce, err) {
		t.Error("Unknown classification must still wrap the original")
	}
}

func TestErrorKindStrings(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrorNetwork: "network",
		ErrorServer:  "server",
		ErrorSetup:   "setup",
		ErrorUnknown: "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind %d: expected %q, got %q", kind, want, got)
		}
	}
}
