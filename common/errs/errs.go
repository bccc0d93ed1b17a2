package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound           = ErrorKind("not found")
	InvalidArgument    = ErrorKind("invalid argument")
	Unsupported        = ErrorKind("unsupported")
	SomethingWentWrong = ErrorKind("something went wrong")
	Timeout            = ErrorKind("timeout")
	OverflowUint256    = ErrorKind("overflow uint256")
)

// Rejection classes of the sale protocol. Every protocol error belongs to
// exactly one of these, so callers can branch on the class with errors.Is.
const (
	// FormatError is a malformed, truncated or unknown message. Never retryable as-is.
	FormatError = ErrorKind("format error")

	// AuthenticityError is a signature, quorum, emitter or module tag failure.
	AuthenticityError = ErrorKind("authenticity error")

	// ReplayError means the message was already applied. Callers treat it as success.
	ReplayError = ErrorKind("replay error")

	// StateError is an operation attempted in the wrong lifecycle phase.
	StateError = ErrorKind("state error")

	// CapacityError is a configuration-level limit such as an unknown token index or chain.
	CapacityError = ErrorKind("capacity error")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
