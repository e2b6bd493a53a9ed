package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a tracer that stores event records in a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []EventRecord
	bufferSize int
}

// NewCSVTraceWriter creates a CSVTraceWriter that will write to the
// given path. An empty path picks a unique name.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace file and registers the final flush. A file
// that already exists is not overwritten.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "sim_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "Seq, Tick, Priority, Description, Status\n")

	atexit.Register(func() {
		t.Flush()
		if err := t.file.Close(); err != nil {
			panic(err)
		}
	})
}

// Trace buffers one record, flushing when the buffer fills.
func (t *CSVTraceWriter) Trace(r EventRecord) {
	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes all buffered records to the file.
func (t *CSVTraceWriter) Flush() {
	w := csv.NewWriter(t.file)

	for _, r := range t.records {
		err := w.Write([]string{
			strconv.FormatUint(r.Seq, 10),
			strconv.FormatInt(int64(r.Tick), 10),
			strconv.Itoa(int(r.Priority)),
			r.Description,
			r.Status.String(),
		})
		if err != nil {
			panic(err)
		}
	}

	w.Flush()
	t.records = nil
}

// Path returns the file path without the .csv suffix.
func (t *CSVTraceWriter) Path() string {
	return t.path
}
