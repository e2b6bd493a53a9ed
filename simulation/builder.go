package simulation

import (
	"github.com/rs/xid"

	"github.com/procflow/simkernel/monitoring"
	"github.com/procflow/simkernel/sim"
	"github.com/procflow/simkernel/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	csvTraceOn     bool
	dbTraceOn      bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not start a monitor
// server.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithCSVTracing records the event trace into a CSV file.
func (b Builder) WithCSVTracing() Builder {
	b.csvTraceOn = true
	return b
}

// WithDBTracing records the event trace into a SQLite database.
func (b Builder) WithDBTracing() Builder {
	b.dbTraceOn = true
	return b
}

// WithOutputFileName sets the file name for the trace output, without
// extension.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:     xid.New().String(),
		engine: sim.NewEventManager(),
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "sim_" + s.id
	}

	if b.csvTraceOn {
		s.csvTracer = tracing.NewCSVTraceWriter(outputPath)
		s.csvTracer.Init()
		tracing.CollectTraces(s.engine, s.csvTracer)
	}

	if b.dbTraceOn {
		s.dbTracer = tracing.NewSQLiteTraceWriter(outputPath)
		s.dbTracer.Init()
		tracing.CollectTraces(s.engine, s.dbTracer)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
