package sim

import "sync"

// condWaiters is the registry of processes suspended on a predicate
// rather than a fixed tick. Membership is kept in registration order;
// predicates are re-evaluated passively by the dispatch loop, so a
// waiting process consumes no time slot.
type condWaiters struct {
	lock    sync.Mutex
	waiters []condWaiter
}

type condWaiter struct {
	proc *Process
	cond func() bool
}

func (w *condWaiters) add(p *Process, cond func() bool) {
	w.lock.Lock()
	w.waiters = append(w.waiters, condWaiter{proc: p, cond: cond})
	w.lock.Unlock()
}

func (w *condWaiters) drop(p *Process) {
	w.lock.Lock()
	defer w.lock.Unlock()

	kept := w.waiters[:0]
	for _, wt := range w.waiters {
		if wt.proc != p {
			kept = append(kept, wt)
		}
	}

	w.waiters = kept
}

// evaluate runs all predicates in registration order, removes the
// satisfied entries, and returns their processes in that same order.
// Predicates run without the lock held, so they may call back into
// the manager (and therefore into this registry).
func (w *condWaiters) evaluate() []*Process {
	w.lock.Lock()
	snapshot := make([]condWaiter, len(w.waiters))
	copy(snapshot, w.waiters)
	w.lock.Unlock()

	var woken []*Process
	satisfied := make(map[*Process]bool)
	for _, wt := range snapshot {
		if wt.cond() {
			woken = append(woken, wt.proc)
			satisfied[wt.proc] = true
		}
	}

	if len(woken) == 0 {
		return nil
	}

	w.lock.Lock()
	kept := w.waiters[:0]
	for _, wt := range w.waiters {
		if !satisfied[wt.proc] {
			kept = append(kept, wt)
		}
	}

	// Zero the tail so dropped entries do not pin their processes.
	for i := len(kept); i < len(w.waiters); i++ {
		w.waiters[i] = condWaiter{}
	}

	w.waiters = kept
	w.lock.Unlock()

	return woken
}

func (w *condWaiters) len() int {
	w.lock.Lock()
	defer w.lock.Unlock()

	return len(w.waiters)
}
