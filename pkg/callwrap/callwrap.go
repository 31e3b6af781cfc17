// Package callwrap standardizes how a cancellable, timeout-bounded remote
// call is issued and how its outcome is classified and reported.
//
// The caller supplies the remote-call function; callwrap supplies the
// plumbing every call site would otherwise repeat: a fresh cancellation
// signal per invocation, timeout injection, failure classification into a
// small taxonomy, uniform logging, optional per-status handlers, and a
// consistent Outcome shape. It defines no HTTP client, no scheduler and no
// retry policy; the host's context.Context is the cancellation channel.
package callwrap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/psantana5/callwrap/pkg/logging"
)

// CallFunc is the caller-owned remote call. It receives the positional
// arguments Invoke was given plus a trailing *CallConfig carrying the
// cancellation signal and timeout, and is expected to honor both.
type CallFunc[R any] func(args []interface{}) (*Response[R], error)

// Options configures one invocation. Zero value is usable: default timeout,
// no handlers, shared default logger, no observer.
type Options struct {
	// ErrorHandlers maps an upstream status code to a side-effecting hook
	// invoked at most once per failed call, after logging and before the
	// original error is returned. Handlers do not replace logging or
	// propagation, and panics inside a handler are not recovered.
	ErrorHandlers map[int]func()

	// TimeoutMillis is handed to the call inside its CallConfig.
	// Defaults to DefaultTimeoutMillis when zero or negative.
	TimeoutMillis int

	// Logger receives the diagnostic output. Defaults to logging.Default().
	Logger *logging.Logger

	// Observer, when set, receives every terminal outcome.
	Observer Observer
}

// handle is the per-invocation cancellation handle. Signal is at-most-once;
// releasing the derived context after the call completed goes through the
// raw cancel func and is not a signal.
type handle struct {
	cancel  context.CancelFunc
	once    sync.Once
	signals int32
}

func (h *handle) Signal() {
	h.once.Do(func() {
		atomic.AddInt32(&h.signals, 1)
		h.cancel()
	})
}

func (h *handle) Signaled() bool {
	return atomic.LoadInt32(&h.signals) > 0
}

// Invoke runs fn with a fresh cancellation signal and the configured timeout
// attached to its trailing config argument, and waits for exactly one of:
// completion, failure, or host-level cancellation of ctx.
//
// On success the response is returned unmodified inside the outcome.
// On failure the error is classified, logged, optionally dispatched to the
// matching ErrorHandlers entry, and the ORIGINAL error is returned alongside
// the failure outcome. On host cancellation the in-flight call is signalled
// to abort exactly once, its own abort error is suppressed, and a
// cancellation outcome with a nil error is returned.
func Invoke[R any](ctx context.Context, fn CallFunc[R], opts Options, args ...interface{}) (Outcome[R], error) {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	timeout := opts.TimeoutMillis
	if timeout <= 0 {
		timeout = DefaultTimeoutMillis
	}

	callID := uuid.New().String()
	start := time.Now()

	// The signal is derived from Background, not from ctx: forwarding host
	// cancellation to the in-flight call is this function's decision, made
	// exactly once on the cancellation path.
	signal, release := context.WithCancel(context.Background())
	h := &handle{cancel: release}
	defer func() {
		if ctx.Err() != nil {
			h.Signal()
		}
		release()
	}()

	callArgs := augmentArgs(args, signal, timeout)

	type result struct {
		resp *Response[R]
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := fn(callArgs)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		// Tell the in-flight call to stop, then wait for it to unwind.
		// Whatever it returns on the way out is not propagated.
		h.Signal()
		<-done
		log.Info("remote call cancelled by host", map[string]interface{}{
			"call_id": callID,
		})
		observe(opts.Observer, OutcomeCancelled.String(), 0, time.Since(start).Seconds())
		return Outcome[R]{Kind: OutcomeCancelled}, nil

	case r := <-done:
		if r.err == nil {
			observe(opts.Observer, OutcomeSuccess.String(), r.resp.Status, time.Since(start).Seconds())
			return Outcome[R]{Kind: OutcomeSuccess, Response: r.resp}, nil
		}
		// The handle has not fired here: it only fires on the host branch
		// above or in the deferred cleanup after return. A context.Canceled
		// the call returns on its own is classified like any other error.
		classified := Classify(r.err)
		logFailure(log, callID, classified)
		if classified.Kind == ErrorServer {
			if hook, ok := opts.ErrorHandlers[classified.Status]; ok {
				hook()
			}
		}
		observe(opts.Observer, classified.Kind.String(), classified.Status, time.Since(start).Seconds())
		return Outcome[R]{Kind: OutcomeFailure, Err: classified}, r.err
	}
}

// logFailure emits the uniform diagnostic line for each failure category.
func logFailure(log *logging.Logger, callID string, ce *ClassifiedError) {
	switch ce.Kind {
	case ErrorServer:
		log.Error("remote call failed", map[string]interface{}{
			"call_id":     callID,
			"status":      ce.Status,
			"status_text": ce.StatusText,
			"body":        ce.Body,
		})
	case ErrorNetwork:
		log.Error("no response from remote host", map[string]interface{}{
			"call_id": callID,
			"error":   ce.Unwrap().Error(),
		})
	case ErrorSetup:
		log.Error("remote call could not be dispatched", map[string]interface{}{
			"call_id": callID,
			"error":   ce.Unwrap().Error(),
		})
	default:
		log.Error("remote call failed with unrecognized error", map[string]interface{}{
			"call_id": callID,
			"error":   ce.Unwrap(),
		})
	}
}
