package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionSQLite(t *testing.T) {
	conn, err := NewConnection(context.Background(), Options{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	var one int
	require.NoError(t, conn.DB.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestNewConnectionRejectsDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), Options{Driver: "mysql", DSN: "x"})
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
}

func TestRebind(t *testing.T) {
	pg := &Connection{Driver: "postgres"}
	lite := &Connection{Driver: "sqlite"}

	q := "SELECT * FROM reconcile_run WHERE run_id = ? AND tool = ?"
	assert.Equal(t, "SELECT * FROM reconcile_run WHERE run_id = $1 AND tool = $2", pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
}
