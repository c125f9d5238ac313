// Package store persists the raw and normalized corpus in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/mushaf/core/encoding"
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
	"github.com/FocuswithJustin/mushaf/core/plan"
	"github.com/FocuswithJustin/mushaf/core/sqlite"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

//go:embed sql/raw.sql
var rawSchema string

// RawTable holds verses as loaded by Init.
const RawTable = "quran"

// Store wraps a single-connection SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, mushaferrors.NewIO("create", dir, err)
			}
		}
	}
	if err := checkDatabaseFile(path); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing database for reading.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, mushaferrors.NewIO("open", path, err)
	}
	if err := checkDatabaseFile(path); err != nil {
		return nil, err
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// checkDatabaseFile rejects an existing, non-empty file that does not carry
// the SQLite signature. Missing and empty files are left to the driver.
func checkDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil
	}
	fileType, err := validation.DetectFile(path)
	if err != nil {
		return mushaferrors.NewUnsupported("database file", err.Error())
	}
	if fileType != validation.FileTypeSQLite {
		return mushaferrors.NewUnsupported("database file", fmt.Sprintf("%s holds %s content", path, fileType))
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for tests and ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init drops every table and view, recreates the raw schema and loads
// verses and info rows, all in one transaction.
func (s *Store) Init(ctx context.Context, verses []partition.Verse, info map[string]string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, rawSchema); err != nil {
			return fmt.Errorf("create raw schema: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO "quran" ("chapter_id", "number", "content") VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range verses {
			if _, err := stmt.ExecContext(ctx, v.ChapterID, v.Number, v.Content); err != nil {
				return fmt.Errorf("insert verse %s: %w", v.Ref(), err)
			}
		}

		for name, value := range info {
			if _, err := tx.ExecContext(ctx, `INSERT INTO "info" ("name", "value") VALUES (?, ?)`, name, value); err != nil {
				return fmt.Errorf("insert info %s: %w", name, err)
			}
		}
		return nil
	})
}

// HasTable reports whether a table or view named name exists.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM "sqlite_master" WHERE "type" IN ('table', 'view') AND "name" = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RawVerses returns the raw verses ordered by (chapter_id, number), with
// ids assigned by position. Raw row ids are ignored.
func (s *Store) RawVerses(ctx context.Context) ([]partition.Verse, error) {
	ok, err := s.HasTable(ctx, RawTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &mushaferrors.NotFoundError{Resource: "table", ID: RawTable + " (run init first)"}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT "chapter_id", "number", "content" FROM "quran" ORDER BY "chapter_id", "number"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verses []partition.Verse
	for rows.Next() {
		v := partition.Verse{ID: len(verses) + 1}
		if err := rows.Scan(&v.ChapterID, &v.Number, &v.Content); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(verses) == 0 {
		return nil, mushaferrors.NewConfiguration(RawTable, "no verses loaded")
	}
	return verses, nil
}

// RawCount returns the number of raw verses.
func (s *Store) RawCount(ctx context.Context) (int, error) {
	ok, err := s.HasTable(ctx, RawTable)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &mushaferrors.NotFoundError{Resource: "table", ID: RawTable + " (run init first)"}
	}
	return s.count(ctx, s.db, RawTable)
}

// Info returns the name/value pairs of the info table.
func (s *Store) Info(ctx context.Context) (map[string]string, error) {
	ok, err := s.HasTable(ctx, "info")
	if err != nil || !ok {
		return map[string]string{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT "name", "value" FROM "info" ORDER BY "name"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		info[name] = value
	}
	return info, rows.Err()
}

// NormalizedTables lists the tables written by normalization, parents
// before children.
func NormalizedTables() []string {
	tables := make([]string, 0, len(partition.Kinds)+1)
	for _, k := range partition.Kinds {
		tables = append(tables, k.Table())
	}
	return append(tables, "verses")
}

// CheckNotNormalized fails with AlreadyNormalizedError when any normalized
// table already holds rows.
func (s *Store) CheckNotNormalized(ctx context.Context) error {
	for _, table := range NormalizedTables() {
		ok, err := s.HasTable(ctx, table)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		n, err := s.count(ctx, s.db, table)
		if err != nil {
			return err
		}
		if n > 0 {
			return &mushaferrors.AlreadyNormalizedError{Table: table, Rows: n}
		}
	}
	return nil
}

// StepFunc is called before (done=false) and after (done=true) each step.
type StepFunc func(index int, step *plan.Step, done bool)

// Apply executes every op of p in a single transaction. Any failure rolls
// back all steps, schema included.
func (s *Store) Apply(ctx context.Context, p *plan.Plan, fn StepFunc) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		assigned := false
		for i, step := range p.Steps {
			if fn != nil {
				fn(i, step, false)
			}
			for j, op := range step.Ops {
				query, args := op.SQL()
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					return fmt.Errorf("step %s, op %d (%s): %w", step.Name, j+1, op.Type, err)
				}
				if op.Type == plan.TypeAssign {
					assigned = true
				}
			}
			if fn != nil {
				fn(i, step, true)
			}
		}
		if assigned {
			return checkMembership(ctx, tx)
		}
		return nil
	})
}

// Script is a named block of SQL text, as written by the statement export.
type Script struct {
	Name string
	SQL  string
}

// ApplyScripts executes scripts in order in a single transaction and then
// checks that every verse belongs to a partition of each kind.
func (s *Store) ApplyScripts(ctx context.Context, scripts []Script) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, sc := range scripts {
			if _, err := tx.ExecContext(ctx, sc.SQL); err != nil {
				return fmt.Errorf("script %s: %w", sc.Name, err)
			}
		}
		return checkMembership(ctx, tx)
	})
}

// checkMembership requires every verse to carry all four partition ids and
// the verse counts of each partition table to add up to the verse total.
func checkMembership(ctx context.Context, tx *sql.Tx) error {
	var conds []string
	for _, k := range partition.Kinds {
		if k == partition.Chapter {
			continue
		}
		conds = append(conds, encoding.QuoteIdent(k.Column())+" IS NULL")
	}
	var n int
	query := `SELECT COUNT(*) FROM "verses" WHERE ` + strings.Join(conds, " OR ")
	if err := tx.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if n > 0 {
		return mushaferrors.NewIntegrity("membership", "%d verses lack a partition id", n)
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM "verses"`).Scan(&total); err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	for _, k := range partition.Kinds {
		var sum int
		query := `SELECT COALESCE(SUM("verse_count"), 0) FROM ` + encoding.QuoteIdent(k.Table())
		if err := tx.QueryRowContext(ctx, query).Scan(&sum); err != nil {
			return fmt.Errorf("membership check: %w", err)
		}
		if sum != total {
			return mushaferrors.NewIntegrity("verse_count",
				"%s verse counts add up to %d, verses holds %d", k.Table(), sum, total)
		}
	}
	return nil
}

// Clear drops the raw verse table, leaving normalized data in place.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS "quran"`)
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) count(ctx context.Context, q queryer, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+encoding.QuoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
