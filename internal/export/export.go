// Package export writes normalized tables to csv, json, xml or xlsx files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	mushafxml "github.com/FocuswithJustin/mushaf/core/xml"
	"github.com/FocuswithJustin/mushaf/internal/logging"
	"github.com/FocuswithJustin/mushaf/internal/store"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatXML, FormatXLSX}
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", mushaferrors.NewUnsupported("export format", s)
}

// WorkbookName is the file written by the xlsx format.
const WorkbookName = "quran.xlsx"

// Export writes tables (all normalized tables when empty) from st into dir
// and returns the written paths. csv, json and xml write one file per
// table; xlsx writes a single workbook with one sheet per table.
func Export(ctx context.Context, st *store.Store, dir string, format Format, tables ...string) ([]string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := validation.ValidatePath(dir); err != nil {
		return nil, fmt.Errorf("export directory: %w", err)
	}
	if len(tables) == 0 {
		tables = store.ExportTables()
	}

	data := make([]*store.Table, 0, len(tables))
	for _, name := range tables {
		t, err := st.Rows(ctx, name)
		if err != nil {
			return nil, err
		}
		data = append(data, t)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mushaferrors.NewIO("create", dir, err)
	}

	if format == FormatXLSX {
		path, err := validation.JoinWithin(dir, WorkbookName)
		if err != nil {
			return nil, err
		}
		if err := WriteWorkbook(path, data); err != nil {
			return nil, err
		}
		for _, t := range data {
			logging.ExportWritten(t.Name, string(format), path, len(t.Rows))
		}
		return []string{path}, nil
	}

	var paths []string
	for _, t := range data {
		path, err := writeFile(dir, t, format)
		if err != nil {
			return nil, err
		}
		logging.ExportWritten(t.Name, string(format), path, len(t.Rows))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(dir string, t *store.Table, format Format) (string, error) {
	path, err := validation.JoinWithin(dir, t.Name+"."+string(format))
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", mushaferrors.NewIO("create", path, err)
	}
	if err := Write(f, t, format); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", mushaferrors.NewIO("close", path, err)
	}
	return path, nil
}

// Write encodes a single table. xlsx is not a stream format.
func Write(w io.Writer, t *store.Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatXML:
		return WriteXML(w, t)
	case FormatXLSX:
		return mushaferrors.NewUnsupported("export format", "xlsx cannot be streamed")
	}
	return mushaferrors.NewUnsupported("export format", string(format))
}

// WriteCSV writes a header row then one record per row. NULL is empty.
func WriteCSV(w io.Writer, t *store.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an array of records with keys in column order.
func WriteJSON(w io.Writer, t *store.Table) error {
	records := make([]jsonRecord, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = jsonRecord{columns: t.Columns, values: row}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

type jsonRecord struct {
	columns []string
	values  []any
}

func (r jsonRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(col); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(r.values[i]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteXML writes <table><row><column>value</column>...</row></table>.
// NULL columns are omitted.
func WriteXML(w io.Writer, t *store.Table) error {
	doc := mushafxml.NewDocument(t.Name)
	root := doc.Root()
	for _, row := range t.Rows {
		el := root.AddElement("row")
		for i, v := range row {
			if v == nil {
				continue
			}
			el.AddElement(t.Columns[i]).SetText(cellText(v))
		}
	}
	return doc.Write(w, "  ")
}

// WriteWorkbook saves tables as sheets of one xlsx workbook at path.
func WriteWorkbook(path string, tables []*store.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return err
		}

		for col, h := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(t.Name, cell, h); err != nil {
				return err
			}
		}
		for r, row := range t.Rows {
			for col, v := range row {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if err := f.SetCellValue(t.Name, cell, v); err != nil {
					return err
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return mushaferrors.NewIO("write", path, err)
	}
	return nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
