// Package duplicate finds records that appear in two CSV exports.
package duplicate

import (
	"fmt"

	"github.com/ilc-alumni/reconcile/internal/logger"
	"github.com/ilc-alumni/reconcile/internal/normalize"
	"github.com/ilc-alumni/reconcile/internal/table"
)

const (
	maxNameMatches  = 10
	maxSampleValues = 5
)

// ExactMatches lists file-1 rows whose composite key also occurs in file 2
type ExactMatches struct {
	Count       int
	Rows        []map[string]string
	Columns     []string // display columns of Rows
	Description string
}

// ColumnOverlap lists file-1 rows whose value in one column also occurs in file 2
type ColumnOverlap struct {
	Column       string
	Count        int
	Rows         []map[string]string
	Columns      []string
	SampleValues []string
}

// NameMatch pairs two rows whose name columns all agree
type NameMatch struct {
	File1Index int
	File2Index int
	File1Data  map[string]string
	File2Data  map[string]string
}

// NameMatches holds every matching pair count and the first few pairs
type NameMatches struct {
	Count       int
	Matches     []NameMatch
	Columns     []string
	Description string
}

// Results is the outcome of comparing two files
type Results struct {
	File1Rows int
	File2Rows int
	Columns   []string

	Exact   ExactMatches
	Overlap []ColumnOverlap // only columns with at least one overlap, in Columns order
	Names   *NameMatches    // nil when the files share no name column
}

// Checker compares two tables for overlapping records
type Checker struct {
	log *logger.Logger
}

// NewChecker creates a duplicate checker
func NewChecker(log *logger.Logger) *Checker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Checker{log: log}
}

// Compare runs the three checks. When columns is empty they are detected
// from the shared headers.
func (c *Checker) Compare(file1, file2 *table.Table, columns []string) (*Results, error) {
	defer c.log.Timing("compare")()

	var err error
	if len(columns) == 0 {
		columns, err = DetectColumns(file1, file2)
	} else {
		err = ValidateColumns(columns, file1, file2)
	}
	if err != nil {
		return nil, err
	}
	c.log.Debug("comparison columns", "columns", columns)

	res := &Results{
		File1Rows: file1.Len(),
		File2Rows: file2.Len(),
		Columns:   columns,
	}
	res.Exact = exactMatches(file1, file2, columns)
	res.Overlap = columnOverlaps(file1, file2, columns)

	if names := sharedNameColumns(file1, file2); len(names) > 0 {
		res.Names = nameMatches(file1, file2, names)
	}

	return res, nil
}

// exactMatches pairs file-1 rows with file-2 rows sharing the full composite
// key. Each file-2 row is consumed once, so Count <= min(len(file1), len(file2)).
func exactMatches(file1, file2 *table.Table, columns []string) ExactMatches {
	available := make(map[string]int)
	for r := range file2.Rows {
		if key, ok := compositeKey(file2, r, columns); ok {
			available[key]++
		}
	}

	out := ExactMatches{
		Columns:     displayColumns(file1, columns),
		Description: fmt.Sprintf("Exact matches on all columns: %v", columns),
	}
	for r := range file1.Rows {
		key, ok := compositeKey(file1, r, columns)
		if !ok || available[key] == 0 {
			continue
		}
		available[key]--
		out.Count++
		out.Rows = append(out.Rows, file1.Record(r, out.Columns))
	}
	return out
}

// compositeKey joins the normalized cells; rows with every cell blank have no key
func compositeKey(t *table.Table, row int, columns []string) (string, bool) {
	values := make([]string, len(columns))
	blank := true
	for i, c := range columns {
		values[i] = t.Get(row, c)
		if !normalize.IsBlank(values[i]) {
			blank = false
		}
	}
	if blank {
		return "", false
	}
	return normalize.Joined(values), true
}

func columnOverlaps(file1, file2 *table.Table, columns []string) []ColumnOverlap {
	var out []ColumnOverlap
	for _, col := range columns {
		values := make(map[string]bool)
		for _, v := range file2.Column(col) {
			if !normalize.IsBlank(v) {
				values[normalize.Value(v)] = true
			}
		}

		overlap := ColumnOverlap{Column: col, Columns: displayColumns(file1, []string{col})}
		for r, v := range file1.Column(col) {
			if normalize.IsBlank(v) || !values[normalize.Value(v)] {
				continue
			}
			overlap.Count++
			overlap.Rows = append(overlap.Rows, file1.Record(r, overlap.Columns))
			if len(overlap.SampleValues) < maxSampleValues {
				overlap.SampleValues = append(overlap.SampleValues, normalize.Value(v))
			}
		}

		if overlap.Count > 0 {
			out = append(out, overlap)
		}
	}
	return out
}

// nameMatches finds every (file1, file2) row pair whose name columns are all
// non-empty and equal after normalization. Pairs come out ordered by file-1
// index then file-2 index, as a nested scan would produce them.
func nameMatches(file1, file2 *table.Table, columns []string) *NameMatches {
	byKey := make(map[string][]int)
	for r := range file2.Rows {
		if key, ok := nameKey(file2, r, columns); ok {
			byKey[key] = append(byKey[key], r)
		}
	}

	out := &NameMatches{
		Columns:     columns,
		Description: fmt.Sprintf("Exact name matches on columns: %v", columns),
	}
	for r1 := range file1.Rows {
		key, ok := nameKey(file1, r1, columns)
		if !ok {
			continue
		}
		for _, r2 := range byKey[key] {
			out.Count++
			if len(out.Matches) < maxNameMatches {
				out.Matches = append(out.Matches, NameMatch{
					File1Index: r1,
					File2Index: r2,
					File1Data:  file1.Record(r1, columns),
					File2Data:  file2.Record(r2, columns),
				})
			}
		}
	}
	return out
}

// nameKey requires every name column to be non-empty
func nameKey(t *table.Table, row int, columns []string) (string, bool) {
	values := make([]string, len(columns))
	for i, c := range columns {
		values[i] = t.Get(row, c)
		if normalize.Value(values[i]) == "" {
			return "", false
		}
	}
	return normalize.Joined(values), true
}
