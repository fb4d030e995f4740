package bounce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilc-alumni/reconcile/internal/table"
)

func mustRead(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.Read(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func TestRun(t *testing.T) {
	master := mustRead(t, `First Name,Last Name,Email Address
Jane,Doe, Jane@X.com
John,Smith,john@x.com
Ann,Lee,
Bob,Ray,BOB@x.com
`)
	bounced := mustRead(t, `Primary Email,Reason
jane@x.com ,hard
bob@X.COM,soft
,unknown
`)

	res, err := NewScrubber("Email Address", "Primary Email", nil).Run(master, bounced)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "john@x.com", "", ""}, res.Table.Column("Email Address"))
	assert.Equal(t, 2, res.Cleared)
	assert.Equal(t, 2, res.Bounced)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, master.Len(), res.Table.Len())
	assert.Equal(t, []string{"Jane", "Doe", ""}, res.Table.Rows[0], "other cells untouched")
	assert.Equal(t, " Jane@X.com", master.Get(0, "Email Address"), "input table untouched")
}

func TestRunDuplicateRowsAllCleared(t *testing.T) {
	master := mustRead(t, "Email Address\na@x.com\nA@x.com\nb@x.com\n")
	bounced := mustRead(t, "Primary Email\na@x.com\na@x.com\n")

	res, err := NewScrubber("Email Address", "Primary Email", nil).Run(master, bounced)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Cleared)
	assert.Equal(t, 1, res.Bounced)
}

func TestEmptyCellsNeverCountAsBounced(t *testing.T) {
	master := mustRead(t, "Email Address\n\n  \n")
	bounced := mustRead(t, "Primary Email\n\n")

	res, err := NewScrubber("Email Address", "Primary Email", nil).Run(master, bounced)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cleared)
}

func TestMissingColumns(t *testing.T) {
	s := NewScrubber("Email Address", "Primary Email", nil)

	_, err := s.Run(mustRead(t, "Email Address\na@x.com\n"), mustRead(t, "Email\na@x.com\n"))
	assert.ErrorIs(t, err, table.ErrColumnNotFound)

	_, err = s.Run(mustRead(t, "Email\na@x.com\n"), mustRead(t, "Primary Email\na@x.com\n"))
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestSetContains(t *testing.T) {
	set, err := NewSet(mustRead(t, "Primary Email\n Bob@X.com\n"), "Primary Email")
	require.NoError(t, err)

	assert.True(t, set.Contains("bob@x.com"))
	assert.True(t, set.Contains("  BOB@x.COM "))
	assert.False(t, set.Contains("bob@y.com"))
	assert.False(t, set.Contains(""))
}
