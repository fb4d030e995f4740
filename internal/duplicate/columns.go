package duplicate

import (
	"errors"
	"fmt"

	"github.com/ilc-alumni/reconcile/internal/table"
)

// ErrNoColumns is returned when two files share no column to compare on
var ErrNoColumns = errors.New("no common columns found for comparison")

// PriorityColumns ranks likely identity columns: email, then name, then id,
// then phone.
var PriorityColumns = []string{
	"email", "Email", "Email Address", "Primary Email", "email address",
	"first name", "First Name", "last name", "Last Name", "name", "Name",
	"id", "ID", "ILC ID",
	"phone", "Phone", "Mobile Phone",
}

// NameColumns are compared by the name-match pass when both files carry them
var NameColumns = []string{"First Name", "Last Name", "Name", "name"}

// fallbackColumns is how many shared columns are used when none is a priority column
const fallbackColumns = 3

// DetectColumns picks the comparison columns for two files. Shared priority
// columns are used in priority order; otherwise the first three shared
// columns in file-1 order.
func DetectColumns(file1, file2 *table.Table) ([]string, error) {
	common := file1.CommonColumns(file2)
	if len(common) == 0 {
		return nil, ErrNoColumns
	}

	shared := make(map[string]bool, len(common))
	for _, c := range common {
		shared[c] = true
	}

	var chosen []string
	for _, c := range PriorityColumns {
		if shared[c] {
			chosen = append(chosen, c)
		}
	}
	if len(chosen) > 0 {
		return chosen, nil
	}

	if len(common) > fallbackColumns {
		common = common[:fallbackColumns]
	}
	return common, nil
}

// ValidateColumns checks that an explicit column list exists in both files
func ValidateColumns(columns []string, file1, file2 *table.Table) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	for _, c := range columns {
		if !file1.Has(c) {
			return fmt.Errorf("file 1: %w: %q", table.ErrColumnNotFound, c)
		}
		if !file2.Has(c) {
			return fmt.Errorf("file 2: %w: %q", table.ErrColumnNotFound, c)
		}
	}
	return nil
}

// sharedNameColumns returns the name columns both files carry
func sharedNameColumns(file1, file2 *table.Table) []string {
	var cols []string
	for _, c := range NameColumns {
		if file1.Has(c) && file2.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// displayColumns returns columns plus First/Last Name when the table has them
func displayColumns(t *table.Table, columns []string) []string {
	display := append([]string(nil), columns...)
	if !t.Has("First Name") || !t.Has("Last Name") {
		return display
	}
	for _, extra := range []string{"First Name", "Last Name"} {
		if !contains(display, extra) {
			display = append(display, extra)
		}
	}
	return display
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
