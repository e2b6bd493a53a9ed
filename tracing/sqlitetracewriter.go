package tracing

import (
	"database/sql"

	// Registers the SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a tracer that stores event records in a SQLite
// database.
type SQLiteTraceWriter struct {
	db        *sql.DB
	statement *sql.Stmt

	dbName    string
	records   []EventRecord
	batchSize int
}

// NewSQLiteTraceWriter creates a SQLiteTraceWriter that will write to
// the given database file. An empty name picks a unique one.
func NewSQLiteTraceWriter(dbName string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    dbName,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Init opens the database and prepares the schema.
func (t *SQLiteTraceWriter) Init() {
	if t.dbName == "" {
		t.dbName = "sim_trace_" + xid.New().String()
	}

	db, err := sql.Open("sqlite3", t.dbName+".sqlite3")
	if err != nil {
		panic(err)
	}
	t.db = db

	t.mustExecute(`
		CREATE TABLE IF NOT EXISTS trace (
			seq INTEGER,
			tick INTEGER,
			priority INTEGER,
			description TEXT,
			status TEXT
		)
	`)

	t.statement, err = t.db.Prepare(`
		INSERT INTO trace (seq, tick, priority, description, status)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		panic(err)
	}
}

// Trace buffers one record, flushing when the batch fills.
func (t *SQLiteTraceWriter) Trace(r EventRecord) {
	t.records = append(t.records, r)
	if len(t.records) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all buffered records to the database in one
// transaction.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.records) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, r := range t.records {
		_, err := t.statement.Exec(
			r.Seq,
			int64(r.Tick),
			int(r.Priority),
			r.Description,
			r.Status.String(),
		)
		if err != nil {
			panic(err)
		}
	}

	t.records = nil
}

// Close flushes and closes the database.
func (t *SQLiteTraceWriter) Close() {
	t.Flush()

	if err := t.db.Close(); err != nil {
		panic(err)
	}
}

// Path returns the database file path without the .sqlite3 suffix.
func (t *SQLiteTraceWriter) Path() string {
	return t.dbName
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.db.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}
