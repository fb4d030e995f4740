package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrColumnNotFound is returned when a required column is absent from a header
var ErrColumnNotFound = errors.New("column not found")

// ErrTooManyFields is returned when a data row is wider than the header
var ErrTooManyFields = errors.New("too many fields")

const utf8BOM = "\ufeff"

// Table is an in-memory CSV file: an ordered header and rows of string cells.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New creates an empty table with the given header
func New(header []string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	t.reindex()
	return t
}

// Load reads a CSV file from disk
func Load(filename string) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	t, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return t, nil
}

// Read parses CSV data. The first record is the header; short rows are padded
// to the header width and a row wider than the header is an error.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := New(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(record) > len(t.Header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d",
				ErrTooManyFields, line, len(t.Header), len(record))
		}
		t.Rows = append(t.Rows, t.fit(record))
	}

	return t, nil
}

// Save writes the table to disk, replacing any existing file
func (t *Table) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}

	if err := t.Write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

// Write emits the header followed by every row
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column, or -1 when absent
func (t *Table) Index(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Has reports whether the header contains column
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Require returns the position of column or ErrColumnNotFound
func (t *Table) Require(column string) (int, error) {
	i := t.Index(column)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	return i, nil
}

// Get returns the cell at row/column, or "" when the column does not exist
func (t *Table) Get(row int, column string) string {
	i := t.Index(column)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell value. It panics if the column does not exist.
func (t *Table) Set(row int, column string, value string) {
	i := t.Index(column)
	if i < 0 {
		panic(fmt.Sprintf("table: set on missing column %q", column))
	}
	t.Rows[row][i] = value
}

// AddColumn appends a column filled with empty cells. It is a no-op when the
// column already exists.
func (t *Table) AddColumn(column string) {
	if t.Has(column) {
		return
	}
	t.Header = append(t.Header, column)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.reindex()
}

// Column returns every value of one column in row order
func (t *Table) Column(column string) []string {
	i := t.Index(column)
	values := make([]string, len(t.Rows))
	if i < 0 {
		return values
	}
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values
}

// Record returns the named cells of one row as a map
func (t *Table) Record(row int, columns []string) map[string]string {
	rec := make(map[string]string, len(columns))
	for _, c := range columns {
		rec[c] = t.Get(row, c)
	}
	return rec
}

// Clone returns a deep copy so callers can transform without touching the input
func (t *Table) Clone() *Table {
	c := New(t.Header)
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// CommonColumns returns the columns present in both tables, in t's order
func (t *Table) CommonColumns(other *Table) []string {
	var common []string
	for _, c := range t.Header {
		if other.Has(c) {
			common = append(common, c)
		}
	}
	return common
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, c := range t.Header {
		// First occurrence wins for duplicated header names.
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

func (t *Table) fit(record []string) []string {
	row := make([]string, len(t.Header))
	copy(row, record)
	return row
}
