package errs

import "github.com/cockroachdb/errors"

// ProtocolError is a sentinel rejection reason that belongs to one rejection class.
// errors.Is matches the sentinel itself and its class.
type ProtocolError struct {
	class ErrorKind
	msg   string
}

// New creates a sentinel protocol error of the given class.
//
//	var ErrReplayed = errs.New(errs.ReplayError, "message already consumed")
func New(class ErrorKind, msg string) *ProtocolError {
	return &ProtocolError{class: class, msg: msg}
}

func (e *ProtocolError) Error() string {
	return e.msg
}

// Class returns the rejection class of the error.
func (e *ProtocolError) Class() ErrorKind {
	return e.class
}

// Is reports whether target is the class of this error.
func (e *ProtocolError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.class
}

// ClassOf returns the rejection class of err, or an empty kind if err is not a protocol error.
func ClassOf(err error) ErrorKind {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr.class
	}
	return ""
}
