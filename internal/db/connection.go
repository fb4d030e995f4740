package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connection holds an open history database
type Connection struct {
	DB     *sql.DB
	Driver string
}

// Options describes how to reach the history database
type Options struct {
	Driver         string // "sqlite" or "postgres"
	DSN            string
	MaxConnections int
}

// NewConnection opens and pings the database
func NewConnection(ctx context.Context, opts Options) (*Connection, error) {
	switch opts.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 4
	}
	if opts.Driver == "sqlite" {
		// A single writer avoids SQLITE_BUSY and keeps ":memory:" databases shared.
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{DB: db, Driver: opts.Driver}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Rebind rewrites ? placeholders as $1, $2, ... for postgres
func (c *Connection) Rebind(query string) string {
	if c.Driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
