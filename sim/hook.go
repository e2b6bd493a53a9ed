package sim

// HookPos is a position in the event lifecycle where hooks can attach.
type HookPos struct {
	Name string
}

// HookPosEventScheduled triggers when an event enters the queue.
var HookPosEventScheduled = &HookPos{Name: "EventScheduled"}

// HookPosBeforeEvent triggers right before a detached event executes.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after an event executed without error.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookPosEventCancelled triggers when a live event is cancelled
// through its handle.
var HookPosEventCancelled = &HookPos{Name: "EventCancelled"}

// EventInfo describes one event to hooks. The kernel hands out copies
// and keeps no history; retention is the hook's concern.
type EventInfo struct {
	Tick        Ticks
	Priority    Priority
	Seq         uint64
	Description string
}

// HookCtx carries the information about the site where a hook fires.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// A Hook is a piece of code that a hookable object invokes at
// well-known positions.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable is an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase provides the hook bookkeeping for types that implement
// Hookable.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook triggers all registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
