//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverCGO     = false
	driverPackage = "modernc.org/sqlite"
)
