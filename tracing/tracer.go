package tracing

import (
	"github.com/procflow/simkernel/sim"
)

// A Tracer consumes event records. Implementations decide retention:
// write to a file, keep in memory, forward over the network.
type Tracer interface {
	Trace(r EventRecord)
}

// traceHook converts the manager's hook callbacks into records.
type traceHook struct {
	tracer Tracer
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	info, ok := ctx.Item.(sim.EventInfo)
	if !ok {
		return
	}

	var status EventStatus
	switch ctx.Pos {
	case sim.HookPosEventScheduled:
		status = StatusScheduled
	case sim.HookPosBeforeEvent:
		status = StatusExecuting
	case sim.HookPosAfterEvent:
		status = StatusCompleted
	case sim.HookPosEventCancelled:
		status = StatusCancelled
	default:
		return
	}

	h.tracer.Trace(EventRecord{
		Tick:        info.Tick,
		Priority:    info.Priority,
		Seq:         info.Seq,
		Description: info.Description,
		Status:      status,
	})
}

// CollectTraces attaches a tracer to a hookable event manager. All
// four lifecycle stages are reported.
func CollectTraces(domain sim.Hookable, tracer Tracer) {
	domain.AcceptHook(&traceHook{tracer: tracer})
}
