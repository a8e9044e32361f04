package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder stores the rows produced by a run in typed tables.
type DataRecorder interface {
	// CreateTable declares a table with one column per field of the row
	// prototype.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a row. The row must have the type of the prototype
	// the table was created with.
	InsertData(tableName string, entry any)

	// RecordProperty stores a property of the run, such as its ID.
	RecordProperty(property, value string)

	// ListTables returns the table names in lexical order.
	ListTables() []string

	// Flush writes the buffered rows.
	Flush()

	// Close flushes, records the end of the run and closes the database.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder that writes into path.sqlite3. The file must
// not exist. An empty path generates a unique name.
func New(path string) DataRecorder {
	r := newSQLiteRecorder(nil)
	r.open(path)
	r.start()

	return r
}

// NewWithDB creates a DataRecorder on an open database.
func NewWithDB(db *sql.DB) DataRecorder {
	r := newSQLiteRecorder(db)
	r.start()

	return r
}

type pendingTable struct {
	rowType reflect.Type
	columns []string
	rows    []any
}

type sqliteRecorder struct {
	db *sql.DB

	tables   map[string]*pendingTable
	buffered int
	maxRows  int
	exec     *execRecorder
	closed   bool
}

func newSQLiteRecorder(db *sql.DB) *sqliteRecorder {
	return &sqliteRecorder{
		db:      db,
		tables:  make(map[string]*pendingTable),
		maxRows: defaultBatchSize,
	}
}

func (r *sqliteRecorder) open(path string) {
	if path == "" {
		path = "devs_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("recording file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Recording to %s\n", filename)

	r.db = db
}

func (r *sqliteRecorder) start() {
	r.exec = newExecRecorder(r)
	r.exec.Start()

	atexit.Register(func() { _ = r.Close() })
}

func columnType(kind reflect.Kind) (string, bool) {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.String:
		return "TEXT", true
	default:
		return "", false
	}
}

func columnsOf(prototype any) ([]string, error) {
	rowType := reflect.TypeOf(prototype)
	if rowType == nil || rowType.Kind() != reflect.Struct {
		return nil, errors.New("a row must be a struct")
	}

	columns := make([]string, 0, rowType.NumField())

	for i := 0; i < rowType.NumField(); i++ {
		field := rowType.Field(i)

		if !field.IsExported() {
			return nil, fmt.Errorf("field %s is not exported", field.Name)
		}

		sqlType, ok := columnType(field.Type.Kind())
		if !ok {
			return nil, fmt.Errorf("field %s has unsupported type %s",
				field.Name, field.Type)
		}

		columns = append(columns, field.Name+" "+sqlType)
	}

	return columns, nil
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if _, exists := r.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns, err := columnsOf(sampleEntry)
	if err != nil {
		panic(fmt.Errorf("table %s: %w", tableName, err))
	}

	r.mustExec(fmt.Sprintf("CREATE TABLE %s (%s)",
		tableName, strings.Join(columns, ", ")))

	r.tables[tableName] = &pendingTable{
		rowType: reflect.TypeOf(sampleEntry),
		columns: structs.Names(sampleEntry),
	}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	t, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.rowType {
		panic(fmt.Sprintf("a row of type %T cannot go into table %s",
			entry, tableName))
	}

	t.rows = append(t.rows, entry)

	r.buffered++
	if r.buffered >= r.maxRows {
		r.Flush()
	}
}

func (r *sqliteRecorder) RecordProperty(property, value string) {
	r.exec.Add(property, value)
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteRecorder) Flush() {
	if r.buffered == 0 {
		return
	}

	tx, err := r.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, name := range r.ListTables() {
		t := r.tables[name]
		if len(t.rows) == 0 {
			continue
		}

		if err := insertRows(tx, name, t); err != nil {
			_ = tx.Rollback()
			panic(err)
		}

		t.rows = nil
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	r.buffered = 0
}

func insertRows(tx *sql.Tx, name string, t *pendingTable) error {
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.columns)), ", ")

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(t.columns, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range t.rows {
		if _, err := stmt.Exec(structs.Values(row)...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}

	return nil
}

func (r *sqliteRecorder) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.exec.End()
	r.Flush()

	return r.db.Close()
}

func (r *sqliteRecorder) mustExec(query string) {
	if _, err := r.db.Exec(query); err != nil {
		panic(fmt.Errorf("%s: %w", query, err))
	}
}
