package duplicate

import (
	"fmt"

	"github.com/ilc-alumni/reconcile/internal/normalize"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// EmailMatch is an address found on both sides, with the first alumni row
// that carries it
type EmailMatch struct {
	Email     string
	Row       int
	FirstName string
	LastName  string
}

// EmailResults is the outcome of comparing two email columns
type EmailResults struct {
	AlumniRows   int
	BouncedRows  int
	AlumniClean  int // distinct non-empty alumni addresses
	BouncedClean int // distinct non-empty bounced addresses
	Matches      []EmailMatch
}

// CompareEmails reports the distinct alumni addresses that also appear in the
// bounced export, in alumni order.
func (c *Checker) CompareEmails(alumni *table.Table, alumniColumn string, bounced *table.Table, bouncedColumn string) (*EmailResults, error) {
	defer c.log.Timing("compare emails")()

	if _, err := alumni.Require(alumniColumn); err != nil {
		return nil, fmt.Errorf("alumni file: %w", err)
	}
	if _, err := bounced.Require(bouncedColumn); err != nil {
		return nil, fmt.Errorf("bounced file: %w", err)
	}

	alumniEmails, firstRow := distinctEmails(alumni.Column(alumniColumn))
	bouncedEmails, _ := distinctEmails(bounced.Column(bouncedColumn))

	inBounced := make(map[string]bool, len(bouncedEmails))
	for _, e := range bouncedEmails {
		inBounced[e] = true
	}

	res := &EmailResults{
		AlumniRows:   alumni.Len(),
		BouncedRows:  bounced.Len(),
		AlumniClean:  len(alumniEmails),
		BouncedClean: len(bouncedEmails),
	}
	for _, email := range alumniEmails {
		if !inBounced[email] {
			continue
		}
		row := firstRow[email]
		res.Matches = append(res.Matches, EmailMatch{
			Email:     email,
			Row:       row,
			FirstName: cellOrNA(alumni, row, "First Name"),
			LastName:  cellOrNA(alumni, row, "Last Name"),
		})
	}

	return res, nil
}

// distinctEmails normalizes, drops empties and keeps the first occurrence of each address
func distinctEmails(values []string) ([]string, map[string]int) {
	var out []string
	first := make(map[string]int)
	for r, v := range values {
		email := normalize.Email(v)
		if email == "" {
			continue
		}
		if _, seen := first[email]; seen {
			continue
		}
		first[email] = r
		out = append(out, email)
	}
	return out, first
}

func cellOrNA(t *table.Table, row int, column string) string {
	if !t.Has(column) {
		return "N/A"
	}
	return t.Get(row, column)
}
