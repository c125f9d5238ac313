// Package sqlite opens SQLite databases through the driver selected at
// build time: modernc.org/sqlite by default, or mattn/go-sqlite3 (via
// contrib/sqlite-external) with CGO_ENABLED=1 and -tags cgo_sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Open opens a database with foreign keys enforced.
//
// The pool holds a single connection: a normalization run uses one
// connection and one transaction, and ":memory:" databases are private to
// the connection that created them.
func Open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// OpenReadOnly opens an existing database file; writes fail.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// Driver describes the compiled-in driver.
type Driver struct {
	Name    string // database/sql driver name
	CGO     bool
	Package string
}

func (d Driver) String() string {
	kind := "pure Go"
	if d.CGO {
		kind = "cgo"
	}
	return fmt.Sprintf("%s (%s)", d.Package, kind)
}

// CurrentDriver returns the driver this binary was built with.
func CurrentDriver() Driver {
	return Driver{Name: driverName, CGO: driverCGO, Package: driverPackage}
}

// EngineVersion reports the SQLite library version behind db.
func EngineVersion(ctx context.Context, db *sql.DB) (string, error) {
	var v string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("sqlite: version: %w", err)
	}
	return v, nil
}
