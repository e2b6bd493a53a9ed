// Package monitoring turns a simulation into a small HTTP server so
// that external tools can pause, continue, and inspect it while it
// runs.
package monitoring

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/procflow/simkernel/sim"
)

// Monitor exposes a simulation engine over HTTP for external
// controlling and observation of the simulation.
type Monitor struct {
	engine     sim.Engine
	portNumber int
}

// NewMonitor creates a new Monitor. The listening port can be set
// through the MONITOR_PORT environment variable or a .env file;
// WithPortNumber overrides both.
func NewMonitor() *Monitor {
	_ = godotenv.Load()

	m := &Monitor{}

	if s := os.Getenv("MONITOR_PORT"); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintf(os.Stderr,
				"Ignoring invalid MONITOR_PORT %q\n", s)
		} else {
			m.portNumber = port
		}
	}

	return m
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine driving the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/queue", m.queue)
	r.HandleFunc("/api/resource", m.listResources)

	return r
}

// StartServer starts the monitor as a web server. When the configured
// port is unavailable or unset, a random free port is used.
func (m *Monitor) StartServer() {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := http.Serve(listener, m.router())
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.engine.Now())
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.engine.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) queue(w http.ResponseWriter, _ *http.Request) {
	pending := m.engine.PendingEvents()
	waiting := m.engine.WaitingProcesses()

	if next, ok := m.engine.NextTick(); ok {
		fmt.Fprintf(w,
			"{\"pending\":%d,\"waiting\":%d,\"next_tick\":%d}",
			pending, waiting, next)
		return
	}

	fmt.Fprintf(w,
		"{\"pending\":%d,\"waiting\":%d,\"next_tick\":null}",
		pending, waiting)
}

func dieOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
