// Package bounce clears undeliverable addresses from a master roster.
package bounce

import (
	"fmt"

	"github.com/ilc-alumni/reconcile/internal/logger"
	"github.com/ilc-alumni/reconcile/internal/normalize"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// Set holds normalized bounced addresses
type Set map[string]struct{}

// Contains reports whether email, once normalized, bounced
func (s Set) Contains(email string) bool {
	_, ok := s[normalize.Email(email)]
	return ok
}

// NewSet reads the bounced addresses from one column of an export
func NewSet(bounced *table.Table, column string) (Set, error) {
	if _, err := bounced.Require(column); err != nil {
		return nil, fmt.Errorf("bounced file: %w", err)
	}

	set := make(Set)
	for _, v := range bounced.Column(column) {
		if email := normalize.Email(v); email != "" {
			set[email] = struct{}{}
		}
	}
	return set, nil
}

// Result summarizes one scrub
type Result struct {
	Table   *table.Table
	Bounced int // distinct bounced addresses
	Cleared int
	Total   int
}

// Scrubber clears bounced email cells
type Scrubber struct {
	emailColumn   string
	bouncedColumn string
	log           *logger.Logger
}

// NewScrubber creates a scrubber for the roster and bounce-export email columns
func NewScrubber(emailColumn, bouncedColumn string, log *logger.Logger) *Scrubber {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scrubber{emailColumn: emailColumn, bouncedColumn: bouncedColumn, log: log}
}

// Run returns a copy of master with every bounced address set to "".
// Every row is kept.
func (s *Scrubber) Run(master, bounced *table.Table) (*Result, error) {
	defer s.log.Timing("scrub")()

	set, err := NewSet(bounced, s.bouncedColumn)
	if err != nil {
		return nil, err
	}
	if _, err := master.Require(s.emailColumn); err != nil {
		return nil, fmt.Errorf("master file: %w", err)
	}

	cleaned := master.Clone()
	res := &Result{Table: cleaned, Bounced: len(set), Total: cleaned.Len()}
	for r := range cleaned.Rows {
		email := cleaned.Get(r, s.emailColumn)
		if !set.Contains(email) {
			continue
		}
		cleaned.Set(r, s.emailColumn, "")
		res.Cleared++
		s.log.Debug("cleared bounced email", "row", r+2, "email", email)
	}

	return res, nil
}
