// Package tracing observes the event lifecycle of a simulation and
// hands the records to pluggable writers. The kernel keeps no history;
// whatever a diagnostic tool wants to show later, a tracer must have
// retained.
package tracing

import (
	"github.com/procflow/simkernel/sim"
)

// EventStatus is the lifecycle stage an EventRecord reports.
type EventStatus int

const (
	// StatusScheduled means the event entered the queue.
	StatusScheduled EventStatus = iota

	// StatusExecuting means the event was detached and its unit of
	// work is about to run.
	StatusExecuting

	// StatusCompleted means the unit of work finished without error.
	StatusCompleted

	// StatusCancelled means the event was removed through its handle
	// before it could run.
	StatusCancelled
)

func (s EventStatus) String() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusExecuting:
		return "Executing"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}

	return "Unknown"
}

// An EventRecord is one observation of a scheduled event.
type EventRecord struct {
	Tick        sim.Ticks
	Priority    sim.Priority
	Seq         uint64
	Description string
	Status      EventStatus
}

// SameEvent reports whether two records describe the same scheduled
// event, regardless of the lifecycle stage they were captured at.
func (r EventRecord) SameEvent(o EventRecord) bool {
	return r.Seq == o.Seq &&
		r.Tick == o.Tick &&
		r.Priority == o.Priority &&
		r.Description == o.Description
}
