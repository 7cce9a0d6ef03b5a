// Package sqlite opens the page database with whichever driver the build
// selected: modernc.org/sqlite by default, or mattn/go-sqlite3 when built
// with -tags cgo_sqlite and CGO_ENABLED=1.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DriverName returns the database/sql driver name for the active build.
func DriverName() string { return driverName }

// DriverType returns "cgo" or "purego".
func DriverType() string { return driverType }

// DriverPackage returns the import path of the active driver.
func DriverPackage() string { return driverPackage }

// Open opens a read-write database, creating the file if needed.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, path)
}

// OpenReadOnly opens an existing database without write access. Both
// drivers accept SQLite URI file names.
func OpenReadOnly(path string) (*sql.DB, error) {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return sql.Open(driverName, path+"?mode=ro")
}

var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Configure limits db to one connection, since SQLite serialises writers,
// and applies the connection pragmas.
func Configure(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	return nil
}
