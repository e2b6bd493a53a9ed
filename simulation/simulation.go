// Package simulation bundles the services a simulation needs: the
// event manager, the monitor server, and the trace writers, with one
// explicit create-run-dispose lifecycle.
package simulation

import (
	"github.com/procflow/simkernel/monitoring"
	"github.com/procflow/simkernel/sim"
	"github.com/procflow/simkernel/tracing"
)

// A Simulation owns the engine and its attached services.
type Simulation struct {
	id     string
	engine *sim.EventManager

	monitor   *monitoring.Monitor
	csvTracer *tracing.CSVTraceWriter
	dbTracer  *tracing.SQLiteTraceWriter
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the event manager driving the simulation.
func (s *Simulation) GetEngine() *sim.EventManager {
	return s.engine
}

// GetMonitor returns the monitor attached to the simulation, if any.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Terminate flushes the trace writers and tears the engine down,
// terminating any processes still parked at a suspension point.
func (s *Simulation) Terminate() {
	if s.csvTracer != nil {
		s.csvTracer.Flush()
	}

	if s.dbTracer != nil {
		s.dbTracer.Close()
	}

	s.engine.Dispose()
}
