package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/history"
	"github.com/ilc-alumni/reconcile/internal/table"
)

// execute runs the CLI against dir and returns everything written to stdout
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	a := &app{stdin: strings.NewReader(stdin), stdout: &out}
	err := run(context.Background(), a, append([]string{"--dir", dir}, args...))
	return out.String(), err
}

func enableHistory(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"HISTORY_ENABLED", "true")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEnrichCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Last Name,Email Address\nJane,Doe,\nJohn,Smith,john@old.com\n")
	writeFile(t, dir, "add.csv", "firstName,lastName,proEmail,linkedinEmail\njane,doe,jane@x.com,\nJOHN,SMITH,,new@x.com\n")

	out, err := execute(t, dir, "", "enrich", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "2 emails loaded from source file.")
	assert.Contains(t, out, "Added 1 email addresses.")
	assert.Contains(t, out, "Total alumni kept: 2")

	result, err := table.Load(filepath.Join(dir, "alumni_with_emails.csv"))
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "jane@x.com", result.Get(0, "Email Address"))
	assert.Equal(t, "john@old.com", result.Get(1, "Email Address"))
}

func TestEnrichMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Email Address\nJane,\n")
	writeFile(t, dir, "add.csv", "firstName,lastName,proEmail\njane,doe,jane@x.com\n")

	_, err := execute(t, dir, "", "enrich", "--no-history")
	require.ErrorIs(t, err, table.ErrColumnNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "alumni_with_emails.csv"))
}

func TestScrubCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Last Name,Email Address\nJane,Doe,jane@x.com\nJohn,Smith,john@x.com\n")
	writeFile(t, dir, "export.csv", "Primary Email\n JANE@X.COM \n")

	out, err := execute(t, dir, "", "scrub", "--no-history", "-o", "clean.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 bounced email addresses.")
	assert.Contains(t, out, "Total alumni kept: 2")

	result, err := table.Load(filepath.Join(dir, "clean.csv"))
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "", result.Get(0, "Email Address"))
	assert.Equal(t, "john@x.com", result.Get(1, "Email Address"))
}

func TestScrubRejectsRowWiderThanHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Last Name,Email Address\nJane,Doe,jane@x.com,2010,Board member\n")
	writeFile(t, dir, "export.csv", "Primary Email\nother@x.com\n")

	_, err := execute(t, dir, "", "scrub", "--no-history")
	require.ErrorIs(t, err, table.ErrTooManyFields)
	assert.NoFileExists(t, filepath.Join(dir, "alumni_cleaned.csv"))
}

func TestEmailCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni_cleaned.csv", "First Name,Last Name,Email Address\nJane,Doe,jane@x.com\nJohn,Smith,\n")
	writeFile(t, dir, "export.csv", "Primary Email\nJANE@X.COM\nother@y.com\n")

	out, err := execute(t, dir, "", "emailcheck", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "Email Duplicate Analysis")
	assert.Contains(t, out, "Email matches found: 1")
	assert.Contains(t, out, "1. jane@x.com -> Jane Doe")
}

func TestDupCheckCommand(t *testing.T) {
	const roster = "First Name,Last Name,Email\nJane,Doe,jane@x.com\nJohn,Smith,john@x.com\n"
	const export = "First Name,Last Name,Email\njane,doe,JANE@x.com\nAmy,Lee,amy@x.com\n"

	t.Run("explicit files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)
		writeFile(t, dir, "b.csv", export)

		out, err := execute(t, dir, "", "dupcheck", "--no-history", "a.csv", "b.csv")
		require.NoError(t, err)
		assert.Contains(t, out, "CSV Duplicate Checker")
		assert.Contains(t, out, "EXACT MATCHES: 1 found")
		assert.Contains(t, out, "NAME MATCHES: 1 found")
		assert.FileExists(t, filepath.Join(dir, "duplicate_analysis.txt"))
	})

	t.Run("no report", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)
		writeFile(t, dir, "b.csv", export)

		_, err := execute(t, dir, "", "dupcheck", "--no-history", "--no-report", "a.csv", "b.csv")
		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(dir, "duplicate_analysis.txt"))
	})

	t.Run("prompts when default file is missing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)
		writeFile(t, dir, "b.csv", export)

		out, err := execute(t, dir, "a.csv\nb.csv\n", "dupcheck", "--no-history", "--no-report")
		require.NoError(t, err)
		assert.Contains(t, out, "File not found: Master Alumni Sheet - Sheet1.csv")
		assert.Contains(t, out, "   a.csv\n   b.csv\n")
		assert.Contains(t, out, "EXACT MATCHES: 1 found")
	})

	t.Run("prompted file missing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)

		_, err := execute(t, dir, "a.csv\nmissing.csv\n", "dupcheck", "--no-history")
		assert.ErrorIs(t, err, errFilesNotFound)
	})

	t.Run("load failure writes no report", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)
		writeFile(t, dir, "b.csv", "Email\njane@x.com,extra\n")

		out, err := execute(t, dir, "", "dupcheck", "--no-history", "a.csv", "b.csv")
		require.Error(t, err)
		assert.ErrorIs(t, err, table.ErrTooManyFields)
		assert.Contains(t, out, "Error loading files")
		assert.NoFileExists(t, filepath.Join(dir, "duplicate_analysis.txt"))
	})

	t.Run("wrong argument count", func(t *testing.T) {
		_, err := execute(t, t.TempDir(), "", "dupcheck", "--no-history", "a.csv")
		assert.Error(t, err)
	})

	t.Run("unknown column", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", roster)
		writeFile(t, dir, "b.csv", export)

		_, err := execute(t, dir, "", "dupcheck", "--no-history", "--columns", "Phone", "a.csv", "b.csv")
		assert.Error(t, err)
	})
}

func TestHistoryOffByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Last Name,Email Address\nJane,Doe,jane@x.com\n")
	writeFile(t, dir, "export.csv", "Primary Email\njane@x.com\n")

	_, err := execute(t, dir, "", "scrub")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "reconcile_runs.db"))
}

func TestRunsRecordHistory(t *testing.T) {
	enableHistory(t)
	dir := t.TempDir()
	writeFile(t, dir, "alumni.csv", "First Name,Last Name,Email Address\nJane,Doe,jane@x.com\n")
	writeFile(t, dir, "export.csv", "Primary Email\njane@x.com\n")

	_, err := execute(t, dir, "", "scrub")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "reconcile_runs.db"))

	out, err := execute(t, dir, "", "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "scrub")
	assert.Contains(t, out, history.StatusSucceeded)

	_, err = execute(t, dir, "", "runs", "show", "no-such-run")
	assert.ErrorIs(t, err, history.ErrRunNotFound)
}

func TestFailedCommandReleasesHistory(t *testing.T) {
	enableHistory(t)
	dir := t.TempDir()

	var out bytes.Buffer
	a := &app{stdin: strings.NewReader(""), stdout: &out}
	err := run(context.Background(), a, []string{"--dir", dir, "runs", "show", "no-such-run"})
	require.ErrorIs(t, err, history.ErrRunNotFound)
	assert.Nil(t, a.conn)
	assert.Nil(t, a.tracker)
}

func TestRunsRequireHistory(t *testing.T) {
	enableHistory(t)
	_, err := execute(t, t.TempDir(), "", "--no-history", "runs", "list")
	assert.Error(t, err)
}
