// Package sqliteexternal provides the optional CGO SQLite driver.
//
// To use the CGO driver (github.com/mattn/go-sqlite3):
//
//	import _ "github.com/FocuswithJustin/mushaf/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/mushaf
//
// By default mushaf uses the pure Go modernc.org/sqlite driver, see
// github.com/FocuswithJustin/mushaf/core/sqlite. Without the cgo_sqlite tag
// this package is empty.
package sqliteexternal
