package sim

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ProcessState is the lifecycle state of a Process.
type ProcessState int

const (
	// StateRunnable means an event exists that will start or resume
	// the process.
	StateRunnable ProcessState = iota

	// StateRunning means the process holds the baton and is executing.
	// At most one process is running at any instant.
	StateRunning

	// StateWaitingOnTime means the process suspended with WaitFor and
	// has a pending event at a future tick.
	StateWaitingOnTime

	// StateWaitingOnCondition means the process suspended with
	// WaitUntil and is registered with the condition registry. No
	// event exists for it.
	StateWaitingOnCondition

	// StateTerminated means the process body returned or was killed.
	StateTerminated
)

func (s ProcessState) String() string {
	switch s {
	case StateRunnable:
		return "Runnable"
	case StateRunning:
		return "Running"
	case StateWaitingOnTime:
		return "WaitingOnTime"
	case StateWaitingOnCondition:
		return "WaitingOnCondition"
	case StateTerminated:
		return "Terminated"
	}

	return "Unknown"
}

// errProcessKilled unwinds a process goroutine torn down by Dispose.
var errProcessKilled = errors.New("sim: process killed")

// A Process is one cooperative logical thread of simulated activity.
// Its body runs on a dedicated goroutine, but the baton handoff with
// the EventManager guarantees that the goroutine only executes while
// the dispatch loop is parked, preserving single-active-thread
// semantics regardless of how the runtime schedules goroutines.
//
// Suspension points are WaitFor, WaitUntil, and returning from the
// body. Resumption continues from the point of suspension.
type Process struct {
	em   *EventManager
	name string
	body func(p *Process) error

	// state is read from other goroutines (monitors, tests) while the
	// process side writes it, so it is stored atomically.
	state atomic.Int32

	// resume and yield form the baton: the manager sends on resume to
	// hand control to the process and blocks on yield until the
	// process suspends or terminates. Both are unbuffered.
	resume chan struct{}
	yield  chan procYield
	killed chan struct{}
}

type procYield struct {
	done bool
	err  error
}

// StartProcess schedules a new process to begin at now()+delta with
// the given priority. The body runs with the baton once the start
// event dispatches. A non-nil handle can cancel the start before it
// happens; cancelling after the process started has no effect on it.
func (em *EventManager) StartProcess(
	delta Ticks,
	priority Priority,
	name string,
	body func(p *Process) error,
	handle *EventHandle,
) (*Process, error) {
	p := &Process{
		em:     em,
		name:   name,
		body:   body,
		resume: make(chan struct{}),
		yield:  make(chan procYield),
		killed: make(chan struct{}),
	}

	if err := em.Schedule(delta, priority, processLaunch{p: p}, handle); err != nil {
		return nil, err
	}

	em.trackProcess(p)

	return p, nil
}

// Name returns the name the process was started with.
func (p *Process) Name() string {
	return p.name
}

// State returns the process's current lifecycle state.
func (p *Process) State() ProcessState {
	return ProcessState(p.state.Load())
}

func (p *Process) setState(s ProcessState) {
	p.state.Store(int32(s))
}

// Now returns the current simulated tick.
func (p *Process) Now() Ticks {
	return p.em.readNow()
}

// Manager returns the EventManager that owns this process's events.
func (p *Process) Manager() *EventManager {
	return p.em
}

// WaitFor suspends the process for the given number of ticks. The
// resumption event carries the given priority, so WaitFor(0, pri)
// resumes within the same tick, ordered among the events already
// queued there by the usual (tick, priority, sequence) rule. A
// negative duration fails with ErrNegativeDuration without
// suspending.
func (p *Process) WaitFor(duration Ticks, priority Priority) error {
	if duration < 0 {
		return ErrNegativeDuration
	}

	if err := p.em.Schedule(duration, priority, processResume{p: p}, nil); err != nil {
		return err
	}

	p.setState(StateWaitingOnTime)
	p.yieldBaton()

	return nil
}

// WaitUntil suspends the process until cond evaluates true. No event
// exists while waiting; the dispatch loop re-evaluates all registered
// conditions after each same-(tick, priority) batch and wakes the
// satisfied processes at the current tick with WakePriority. The
// condition runs on the dispatch thread and must not suspend.
func (p *Process) WaitUntil(cond func() bool) {
	p.em.waiters.add(p, cond)
	p.setState(StateWaitingOnCondition)
	p.yieldBaton()
}

// yieldBaton hands control back to the dispatch loop and parks until
// the manager resumes or kills the process.
func (p *Process) yieldBaton() {
	p.yield <- procYield{}

	select {
	case <-p.resume:
		p.setState(StateRunning)
	case <-p.killed:
		panic(errProcessKilled)
	}
}

// run hosts the process body. It parks until the launch event hands
// over the baton for the first time. A panic in the body is caught
// and reported through the baton like an ordinary body error, so it
// surfaces from Run with the kernel still consistent.
func (p *Process) run() {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if r == errProcessKilled {
			p.setState(StateTerminated)
			return
		}

		p.setState(StateTerminated)
		p.yield <- procYield{
			done: true,
			err:  fmt.Errorf("process %s panicked: %v", p.name, r),
		}
	}()

	select {
	case <-p.resume:
		p.setState(StateRunning)
	case <-p.killed:
		p.setState(StateTerminated)
		return
	}

	err := p.body(p)

	p.setState(StateTerminated)
	p.yield <- procYield{done: true, err: err}
}

// transfer hands the baton to the process goroutine and parks the
// dispatch loop until the baton comes back.
func (p *Process) transfer() error {
	p.resume <- struct{}{}
	y := <-p.yield

	if y.done {
		p.em.untrackProcess(p)
	}

	return y.err
}

// kill tears down a parked process goroutine. Live events for the
// process, if any, are left to the queue; kill is only used by
// Dispose, after dispatching has stopped.
func (p *Process) kill() {
	close(p.killed)
}

// processLaunch is the target of a process's start event.
type processLaunch struct {
	p *Process
}

func (t processLaunch) Execute(_ Ticks) error {
	go t.p.run()
	return t.p.transfer()
}

func (t processLaunch) Description() string {
	return t.p.name
}

// processResume is the target of a resumption or wake event.
type processResume struct {
	p *Process
}

func (t processResume) Execute(_ Ticks) error {
	return t.p.transfer()
}

func (t processResume) Description() string {
	return t.p.name
}
