package runner

import "errors"

// Kind classifies runner failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindStartFailure
	KindStopFailure
	KindInvalidAction
)

func (k Kind) String() string {
	switch k {
	case KindStartFailure:
		return "start_failure"
	case KindStopFailure:
		return "stop_failure"
	case KindInvalidAction:
		return "invalid_action"
	default:
		return "unknown"
	}
}

// Error reports why an action could not complete.
type Error struct {
	Kind   Kind
	Path   string
	PID    int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var prefix string
	switch e.Kind {
	case KindStartFailure:
		prefix = "start failed"
	case KindStopFailure:
		prefix = "stop failed"
	case KindInvalidAction:
		prefix = "invalid action"
	default:
		prefix = "runner"
	}
	msg := prefix
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrStartFailure  = &Error{Kind: KindStartFailure}
	ErrStopFailure   = &Error{Kind: KindStopFailure}
	ErrInvalidAction = &Error{Kind: KindInvalidAction}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return KindUnknown
}
