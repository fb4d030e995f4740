package duplicate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults(t *testing.T) *Results {
	t.Helper()
	file1 := mustRead(t, "Email,First Name,Last Name\njane@x.com,Jane,Doe\njohn@x.com,John,Smith\n")
	file2 := mustRead(t, "Email,First Name,Last Name\njane@x.com,Jane,Doe\nother@x.com,John,Smith\n")

	res, err := NewChecker(nil).Compare(file1, file2, nil)
	require.NoError(t, err)
	return res
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleResults(t))
	out := buf.String()

	assert.Contains(t, out, "DUPLICATE ANALYSIS RESULTS")
	assert.Contains(t, out, "EXACT MATCHES: 1 found")
	assert.Contains(t, out, `1. {Email: "jane@x.com", First Name: "Jane", Last Name: "Doe"}`)
	assert.Contains(t, out, "Email: 1 duplicates")
	assert.Contains(t, out, `Sample values: ["jane@x.com"]`)
	assert.Contains(t, out, "NAME MATCHES: 2 found")
}

func TestPrintSummaryNoDuplicates(t *testing.T) {
	res, err := NewChecker(nil).Compare(mustRead(t, "Email\na\n"), mustRead(t, "Email\nb\n"), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, res)
	assert.Contains(t, buf.String(), "No duplicates found.")
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicate_analysis.txt")
	require.NoError(t, SaveReport(path, sampleResults(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "EXACT_MATCHES:\nCount: 1\n")
	assert.Contains(t, out, "Description: Exact matches on all columns: [Email First Name Last Name]")
	assert.Contains(t, out, "COLUMN_DUPLICATES:\nCount: 3\n")
	assert.Contains(t, out, "NAME_MATCHES:\nCount: 2\n")
	assert.Contains(t, out, "File1 row 1:")
}

func TestSaveReportBadPath(t *testing.T) {
	err := SaveReport(filepath.Join(t.TempDir(), "missing", "report.txt"), sampleResults(t))
	assert.Error(t, err)
}

func TestPrintEmailSummary(t *testing.T) {
	res := &EmailResults{
		AlumniRows:   3,
		BouncedRows:  2,
		AlumniClean:  3,
		BouncedClean: 2,
		Matches: []EmailMatch{
			{Email: "a@x.com", FirstName: "Ann", LastName: "Lee"},
			{Email: "b@x.com", FirstName: "Bob", LastName: "Ray"},
		},
	}

	var buf bytes.Buffer
	PrintEmailSummary(&buf, res, 1)
	out := buf.String()

	assert.Contains(t, out, "Email matches found: 2")
	assert.Contains(t, out, "1. a@x.com -> Ann Lee")
	assert.NotContains(t, out, "b@x.com")
}
