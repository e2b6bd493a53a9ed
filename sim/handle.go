package sim

// An EventHandle is a caller-held token that weakly references at most
// one live event. It never owns the event: the queue does. After the
// event fires or is cancelled the handle returns to the unbound state
// and may be reused for a later Schedule call.
//
// The zero value is ready to use. Handles are bound and unbound only
// on the active logical thread, so they need no locking of their own.
type EventHandle struct {
	slot  int
	gen   uint64
	bound bool
}

// IsScheduled reports whether the handle currently references a live
// event.
func (h *EventHandle) IsScheduled() bool {
	return h != nil && h.bound
}

func (h *EventHandle) bind(slot int, gen uint64) {
	h.slot = slot
	h.gen = gen
	h.bound = true
}

func (h *EventHandle) unbind() {
	h.bound = false
}
