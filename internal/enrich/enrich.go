// Package enrich fills missing email addresses in a master roster from an
// external contact export, joining on normalized first and last names.
package enrich

import (
	"fmt"
	"strings"

	"github.com/ilc-alumni/reconcile/internal/logger"
	"github.com/ilc-alumni/reconcile/internal/normalize"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// Columns names the fields enrichment reads and writes
type Columns struct {
	First string
	Last  string
	Email string

	SourceFirst  string
	SourceLast   string
	SourceEmails []string // candidate fields, highest priority first
}

// DefaultColumns returns the headers of the alumni roster and the contact export
func DefaultColumns() Columns {
	return Columns{
		First:        "First Name",
		Last:         "Last Name",
		Email:        "Email Address",
		SourceFirst:  "firstName",
		SourceLast:   "lastName",
		SourceEmails: []string{"proEmail", "linkedinEmail"},
	}
}

// Index maps a contact's name key to the email it should receive
type Index struct {
	emails map[normalize.NameKey]string
	// Loaded counts source rows that contributed an email
	Loaded int
}

// Lookup returns the email indexed for key
func (ix *Index) Lookup(key normalize.NameKey) (string, bool) {
	email, ok := ix.emails[key]
	return email, ok
}

// Keys returns the number of distinct names in the index
func (ix *Index) Keys() int {
	return len(ix.emails)
}

// Result summarizes one enrichment pass
type Result struct {
	Table   *table.Table
	Loaded  int
	Keys    int
	Added   int
	Total   int
	Skipped int // master rows that already had an email and a matching source row
}

// Enricher joins a master roster with an external contact list
type Enricher struct {
	cols Columns
	log  *logger.Logger
}

// NewEnricher creates an enricher for the given columns
func NewEnricher(cols Columns, log *logger.Logger) *Enricher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Enricher{cols: cols, log: log}
}

// BuildIndex collects one email per name key from the source table. The
// first non-empty candidate field wins; a later row with the same name
// replaces an earlier one.
func (e *Enricher) BuildIndex(source *table.Table) (*Index, error) {
	if _, err := source.Require(e.cols.SourceFirst); err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}
	if _, err := source.Require(e.cols.SourceLast); err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}

	ix := &Index{emails: make(map[normalize.NameKey]string)}
	for r := range source.Rows {
		key := normalize.Name(source.Get(r, e.cols.SourceFirst), source.Get(r, e.cols.SourceLast))
		if key.Blank() {
			continue
		}

		email := e.candidate(source, r)
		if email == "" {
			continue
		}

		if prev, ok := ix.emails[key]; ok && prev != email {
			e.log.Debug("later source row replaces email", "name", key.String(), "email", email)
		}
		ix.emails[key] = email
		ix.Loaded++
	}

	return ix, nil
}

func (e *Enricher) candidate(source *table.Table, row int) string {
	for _, col := range e.cols.SourceEmails {
		if v := strings.TrimSpace(source.Get(row, col)); v != "" {
			return v
		}
	}
	return ""
}

// Apply fills empty email cells of a copy of master. Rows are never dropped
// and non-empty cells are never overwritten.
func (e *Enricher) Apply(master *table.Table, ix *Index) (*Result, error) {
	if _, err := master.Require(e.cols.First); err != nil {
		return nil, fmt.Errorf("master file: %w", err)
	}
	if _, err := master.Require(e.cols.Last); err != nil {
		return nil, fmt.Errorf("master file: %w", err)
	}

	enhanced := master.Clone()
	enhanced.AddColumn(e.cols.Email)

	res := &Result{Table: enhanced, Loaded: ix.Loaded, Keys: ix.Keys(), Total: enhanced.Len()}
	for r := range enhanced.Rows {
		key := normalize.Name(enhanced.Get(r, e.cols.First), enhanced.Get(r, e.cols.Last))
		email, ok := ix.Lookup(key)
		if !ok {
			continue
		}

		if strings.TrimSpace(enhanced.Get(r, e.cols.Email)) != "" {
			res.Skipped++
			continue
		}

		enhanced.Set(r, e.cols.Email, email)
		res.Added++
		e.log.Debug("filled email", "row", r+2, "name", key.String(), "email", email)
	}

	return res, nil
}

// Run builds the index from source and applies it to master
func (e *Enricher) Run(master, source *table.Table) (*Result, error) {
	defer e.log.Timing("enrich")()

	ix, err := e.BuildIndex(source)
	if err != nil {
		return nil, err
	}
	return e.Apply(master, ix)
}
