package callwrap

// Observer receives the terminal outcome of each invocation.
// outcome is "success", "cancelled", or the failure kind ("network",
// "server", "setup", "unknown"); status is the upstream status code when
// one exists (success responses, server failures) and 0 otherwise.
type Observer interface {
	ObserveOutcome(outcome string, status int, seconds float64)
}

func observe(o Observer, outcome string, status int, seconds float64) {
	if o != nil {
		o.ObserveOutcome(outcome, status, seconds)
	}
}
