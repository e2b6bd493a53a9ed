package sim

import (
	"sync"
)

// An EventManager owns the simulated clock and the queue of pending
// events, and drives the dispatch loop. It is the single Scheduler
// instance of a simulation; collaborators receive it explicitly
// rather than through package-level state.
//
// Exactly one logical thread runs model code at any instant: either
// the dispatch loop itself or the one process it handed the baton to.
// Dispatch order, not goroutine interleaving, is therefore the sole
// source of truth for simulation results.
type EventManager struct {
	HookableBase

	timeLock sync.RWMutex
	time     Ticks

	queueLock sync.Mutex
	queue     *eventQueue
	seq       uint64

	waiters condWaiters

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	procsLock sync.Mutex
	procs     map[*Process]struct{}
}

var _ Engine = (*EventManager)(nil)

// NewEventManager creates an EventManager with the clock at tick 0 and
// an empty queue.
func NewEventManager() *EventManager {
	return &EventManager{
		queue: newEventQueue(),
		procs: make(map[*Process]struct{}),
	}
}

// Now returns the current simulated tick.
func (em *EventManager) Now() Ticks {
	return em.readNow()
}

func (em *EventManager) readNow() Ticks {
	em.timeLock.RLock()
	t := em.time
	em.timeLock.RUnlock()

	return t
}

func (em *EventManager) writeNow(t Ticks) {
	em.timeLock.Lock()
	em.time = t
	em.timeLock.Unlock()
}

// Schedule registers a unit of work to execute at now()+delta with the
// given priority. Events sharing a (tick, priority) pair dispatch in
// schedule order.
//
// A non-nil handle is bound to the new event so the caller can cancel
// it later. Scheduling with a handle that is still bound fails with
// ErrHandleInUse; the kernel never rebinds silently. A negative delta
// fails with ErrInvalidSchedule. Neither failure mutates any state.
func (em *EventManager) Schedule(
	delta Ticks,
	priority Priority,
	target Target,
	handle *EventHandle,
) error {
	if delta < 0 {
		return ErrInvalidSchedule
	}

	if handle.IsScheduled() {
		return ErrHandleInUse
	}

	em.queueLock.Lock()
	tick := em.readNow() + delta
	em.seq++
	seq := em.seq
	slot, gen := em.queue.insert(tick, priority, seq, target, handle)
	if handle != nil {
		handle.bind(slot, gen)
	}
	em.queueLock.Unlock()

	em.InvokeHook(HookCtx{
		Domain: em,
		Pos:    HookPosEventScheduled,
		Item: EventInfo{
			Tick:        tick,
			Priority:    priority,
			Seq:         seq,
			Description: target.Description(),
		},
	})

	return nil
}

// Cancel removes the event the handle references, if it is still live,
// and reports whether anything was removed. Once Cancel returns true
// the unit of work is guaranteed never to execute. Cancelling an
// unbound, fired, or already-cancelled handle is an idempotent no-op.
func (em *EventManager) Cancel(handle *EventHandle) bool {
	if !handle.IsScheduled() {
		return false
	}

	em.queueLock.Lock()
	ev, ok := em.queue.remove(handle.slot, handle.gen)
	em.queueLock.Unlock()

	handle.unbind()

	if !ok {
		return false
	}

	em.InvokeHook(HookCtx{
		Domain: em,
		Pos:    HookPosEventCancelled,
		Item: EventInfo{
			Tick:        ev.tick,
			Priority:    ev.priority,
			Seq:         ev.seq,
			Description: ev.description,
		},
	})

	return true
}

// PendingEvents returns the number of events waiting to dispatch.
func (em *EventManager) PendingEvents() int {
	em.queueLock.Lock()
	n := em.queue.len()
	em.queueLock.Unlock()

	return n
}

// WaitingProcesses returns the number of processes suspended on a
// condition.
func (em *EventManager) WaitingProcesses() int {
	return em.waiters.len()
}

// NextTick returns the tick of the earliest pending event.
func (em *EventManager) NextTick() (Ticks, bool) {
	em.queueLock.Lock()
	key, ok := em.queue.peekMin()
	em.queueLock.Unlock()

	return key.tick, ok
}

// Run processes events until the queue is quiescent: no event is
// pending and no wait condition evaluates true.
func (em *EventManager) Run() error {
	return em.RunUntil(nil)
}

// RunUntil processes events until stop returns true, until the queue
// is quiescent, or until a unit of work fails. A nil stop runs to
// quiescence.
//
// Each step detaches the earliest event by (tick, priority, schedule
// sequence), advances the clock to its tick, and executes it. The
// stop condition is evaluated between steps, never inside one. After
// the last event of a (tick, priority) batch, all registered wait
// conditions are evaluated in registration order and the satisfied
// ones are woken at the current tick with WakePriority.
func (em *EventManager) RunUntil(stop func() bool) error {
	em.singleRunLock.Lock()
	defer em.singleRunLock.Unlock()

	for {
		if stop != nil && stop() {
			return nil
		}

		em.pauseLock.Lock()

		ev, ok := em.popNext()
		if !ok {
			woke := em.evaluateWaiters()
			em.pauseLock.Unlock()

			if woke {
				continue
			}

			return nil
		}

		if ev.tick > em.readNow() {
			em.writeNow(ev.tick)
		}

		if err := em.dispatch(ev); err != nil {
			em.pauseLock.Unlock()
			return err
		}

		if em.batchDone(ev) {
			em.evaluateWaiters()
		}

		em.pauseLock.Unlock()
	}
}

func (em *EventManager) popNext() (detachedEvent, bool) {
	em.queueLock.Lock()
	ev, ok := em.queue.popMin()
	em.queueLock.Unlock()

	return ev, ok
}

// batchDone reports whether ev was the last pending event of its
// (tick, priority) pair.
func (em *EventManager) batchDone(ev detachedEvent) bool {
	em.queueLock.Lock()
	key, ok := em.queue.peekMin()
	em.queueLock.Unlock()

	return !ok || key.tick != ev.tick || key.priority != ev.priority
}

func (em *EventManager) dispatch(ev detachedEvent) error {
	if ev.handle != nil {
		ev.handle.unbind()
	}

	info := EventInfo{
		Tick:        ev.tick,
		Priority:    ev.priority,
		Seq:         ev.seq,
		Description: ev.description,
	}

	ctx := HookCtx{Domain: em, Pos: HookPosBeforeEvent, Item: info}
	em.InvokeHook(ctx)

	if err := ev.target.Execute(em.readNow()); err != nil {
		return &TargetError{
			Tick:        ev.tick,
			Priority:    ev.priority,
			Description: ev.description,
			Err:         err,
		}
	}

	ctx.Pos = HookPosAfterEvent
	em.InvokeHook(ctx)

	return nil
}

// evaluateWaiters runs all registered wait conditions in registration
// order and schedules a wake event at the current tick for each one
// that is satisfied. It reports whether any process was woken.
func (em *EventManager) evaluateWaiters() bool {
	woken := em.waiters.evaluate()
	for _, p := range woken {
		p.setState(StateRunnable)

		// A zero delta with a nil handle cannot be rejected.
		err := em.Schedule(0, WakePriority, processResume{p: p}, nil)
		if err != nil {
			panic(err)
		}
	}

	return len(woken) > 0
}

// Pause stops the manager from dispatching further events. The clock
// and the queue are not touched; a dispatch step already underway
// finishes first.
func (em *EventManager) Pause() {
	em.isPausedLock.Lock()
	defer em.isPausedLock.Unlock()

	if em.isPaused {
		return
	}

	em.pauseLock.Lock()
	em.isPaused = true
}

// Continue lets a paused manager dispatch again.
func (em *EventManager) Continue() {
	em.isPausedLock.Lock()
	defer em.isPausedLock.Unlock()

	if !em.isPaused {
		return
	}

	em.pauseLock.Unlock()
	em.isPaused = false
}

// Dispose tears the manager down, terminating every process goroutine
// that is still parked at a suspension point. It must not be called
// while Run or RunUntil is dispatching.
func (em *EventManager) Dispose() {
	em.procsLock.Lock()
	procs := em.procs
	em.procs = make(map[*Process]struct{})
	em.procsLock.Unlock()

	for p := range procs {
		em.waiters.drop(p)
		p.kill()
	}
}

func (em *EventManager) trackProcess(p *Process) {
	em.procsLock.Lock()
	em.procs[p] = struct{}{}
	em.procsLock.Unlock()
}

func (em *EventManager) untrackProcess(p *Process) {
	em.procsLock.Lock()
	delete(em.procs, p)
	em.procsLock.Unlock()
}
