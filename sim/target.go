package sim

// A Target is a unit of work that the EventManager executes when the
// event carrying it is dispatched. The target may call back into the
// manager (Schedule, Cancel, StartProcess) during its own execution.
//
// A non-nil error halts dispatch and propagates out of Run wrapped in
// a TargetError.
type Target interface {
	Execute(now Ticks) error

	// Description identifies the unit of work in traces and logs.
	Description() string
}

// TimeTeller can be used to get the current simulated tick.
type TimeTeller interface {
	Now() Ticks
}

// A WorkScheduler can schedule and cancel future units of work.
type WorkScheduler interface {
	Schedule(delta Ticks, priority Priority, target Target, handle *EventHandle) error
	Cancel(handle *EventHandle) bool
}

// An Engine keeps a discrete-event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	WorkScheduler

	// Run processes events until the queue is quiescent.
	Run() error

	// RunUntil processes events until stop returns true. The stop
	// condition is evaluated between dispatch steps, never inside one.
	RunUntil(stop func() bool) error

	// Pause stops the engine from dispatching until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// PendingEvents returns the number of events waiting to dispatch.
	PendingEvents() int

	// WaitingProcesses returns the number of processes suspended on a
	// condition.
	WaitingProcesses() int

	// NextTick returns the tick of the earliest pending event.
	NextTick() (Ticks, bool)
}

type funcTarget struct {
	desc string
	f    func(now Ticks) error
}

func (t funcTarget) Execute(now Ticks) error { return t.f(now) }
func (t funcTarget) Description() string     { return t.desc }

// FuncTarget wraps a plain function as a Target.
func FuncTarget(desc string, f func(now Ticks) error) Target {
	return funcTarget{desc: desc, f: f}
}
