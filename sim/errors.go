package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidSchedule is returned by Schedule when the delta is
// negative. The call leaves the queue and the clock untouched.
var ErrInvalidSchedule = errors.New("sim: schedule delta is negative")

// ErrNegativeDuration is returned by Process.WaitFor when the wait
// duration is negative.
var ErrNegativeDuration = errors.New("sim: wait duration is negative")

// ErrHandleInUse is returned by Schedule when the supplied handle is
// still bound to a live event. A handle must fire or be cancelled
// before it can be rebound; the kernel never rebinds silently.
var ErrHandleInUse = errors.New("sim: event handle is already bound")

// A TargetError wraps a fault raised by a unit of work. Dispatch halts
// and the error propagates out of Run; the failing event is already
// detached, so the clock and the queue remain consistent and the
// caller may inspect them and decide whether to resume.
type TargetError struct {
	Tick        Ticks
	Priority    Priority
	Description string
	Err         error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("sim: target %q failed at tick %d, priority %d: %v",
		e.Description, e.Tick, e.Priority, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
