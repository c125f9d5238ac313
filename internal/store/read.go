package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FocuswithJustin/mushaf/core/encoding"
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
)

// Table is a fully read result set. Values are int64, float64, string or
// nil.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// ExportTables lists the tables exported by default, in dependency order.
func ExportTables() []string {
	return NormalizedTables()
}

// Rows reads every row of a table or view, ordered by its first column.
func (s *Store) Rows(ctx context.Context, table string) (*Table, error) {
	ok, err := s.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, mushaferrors.NewNotFound("table", table)
	}
	t, err := s.Query(ctx, `SELECT * FROM `+encoding.QuoteIdent(table)+` ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	t.Name = table
	return t, nil
}

// Query runs a read query and collects the result.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := &Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		t.Rows = append(t.Rows, values)
	}
	return t, rows.Err()
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	return v
}

// TableSummary describes one normalized table.
type TableSummary struct {
	Table      string
	Rows       int
	VerseCount int // sum of verse_count (row count for verses)
	PageCount  int // sum of page_count, 0 when the table has none
}

// Summary returns row and count totals for every normalized table that
// exists.
func (s *Store) Summary(ctx context.Context) ([]TableSummary, error) {
	var out []TableSummary
	for _, table := range NormalizedTables() {
		ok, err := s.HasTable(ctx, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		sum := TableSummary{Table: table}
		if sum.Rows, err = s.count(ctx, s.db, table); err != nil {
			return nil, err
		}

		if table == "verses" {
			sum.VerseCount = sum.Rows
			out = append(out, sum)
			continue
		}

		kind, err := partition.ParseKind(table)
		if err != nil {
			return nil, err
		}
		query := `SELECT COALESCE(SUM("verse_count"), 0) FROM ` + encoding.QuoteIdent(table)
		if partition.SpecFor(kind).PageCount {
			query = `SELECT COALESCE(SUM("verse_count"), 0), COALESCE(SUM("page_count"), 0) FROM ` + encoding.QuoteIdent(table)
			err = s.db.QueryRowContext(ctx, query).Scan(&sum.VerseCount, &sum.PageCount)
		} else {
			err = s.db.QueryRowContext(ctx, query).Scan(&sum.VerseCount)
		}
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", table, err)
		}
		out = append(out, sum)
	}
	return out, nil
}
