//go:build cgo_sqlite

package sqlite

import (
	_ "github.com/FocuswithJustin/mushaf/contrib/sqlite-external"
)

const (
	driverName    = "sqlite3"
	driverCGO     = true
	driverPackage = "github.com/mattn/go-sqlite3"
)
