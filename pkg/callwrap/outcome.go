package callwrap

// OutcomeKind is the terminal state of one wrapped invocation.
type OutcomeKind int

const (
	// OutcomeSuccess means the remote call completed and its response is available.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means the remote call failed; the classified error is available
	// and the original error was returned to the caller.
	OutcomeFailure
	// OutcomeCancelled means the host cancelled the invocation while the call was
	// in flight. Cancellation is not a caller-visible error.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Response carries the result of a successful remote call, unmodified:
// the decoded payload plus the upstream status line.
type Response[R any] struct {
	Data       R      `json:"data"`
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
}

// Outcome is the terminal result of one Invoke. Exactly one of Response or
// Err is set for success and failure; both are nil on cancellation.
type Outcome[R any] struct {
	Kind     OutcomeKind
	Response *Response[R]
	Err      *ClassifiedError
}
