package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	mushafxml "github.com/FocuswithJustin/mushaf/core/xml"
	"github.com/FocuswithJustin/mushaf/internal/metadata"
	"github.com/FocuswithJustin/mushaf/internal/pipeline"
	"github.com/FocuswithJustin/mushaf/internal/store"
)

func sampleTable() *store.Table {
	return &store.Table{
		Name:    "chapters",
		Columns: []string{"id", "name", "name_alt", "verse_count"},
		Rows: [][]any{
			{int64(1), "Alpha", nil, int64(7)},
			{int64(2), "Beta, \"two\"", "<&>", int64(12)},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" JSON ", FormatJSON, false},
		{"xml", FormatXML, false},
		{"xlsx", FormatXLSX, false},
		{"parquet", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, mushaferrors.ErrUnsupported) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupported", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTable()); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"id", "name", "name_alt", "verse_count"},
		{"1", "Alpha", "", "7"},
		{"2", "Beta, \"two\"", "<&>", "12"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTable()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"<&>"`) {
		t.Errorf("html characters were escaped:\n%s", out)
	}
	if !strings.Contains(out, "\n  {\n    \"id\": 1,") {
		t.Errorf("output is not indented by two spaces:\n%s", out)
	}
	if strings.Index(out, `"id"`) > strings.Index(out, `"name"`) {
		t.Errorf("keys are not in column order:\n%s", out)
	}

	var records []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0]["name_alt"] != nil || records[1]["verse_count"] != float64(12) {
		t.Errorf("records = %v", records)
	}
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXML(&buf, sampleTable()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "&lt;&amp;") {
		t.Errorf("text was not escaped:\n%s", out)
	}

	doc, err := mushafxml.Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := doc.XPath("/chapters/row")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	alt, err := doc.XPath("/chapters/row/name_alt")
	if err != nil {
		t.Fatal(err)
	}
	if len(alt) != 1 || alt[0].Text() != "<&>" {
		t.Errorf("name_alt elements = %d", len(alt))
	}
}

func TestWriteRejectsUnknown(t *testing.T) {
	for _, f := range []Format{FormatXLSX, "yaml"} {
		if err := Write(&bytes.Buffer{}, sampleTable(), f); !errors.Is(err, mushaferrors.ErrUnsupported) {
			t.Errorf("Write(%s) error = %v", f, err)
		}
	}
}

func normalizedMini(t *testing.T) *store.Store {
	t.Helper()
	const dir = "../../testdata/mini"
	chapters, err := metadata.LoadChapters(filepath.Join(dir, "chapters.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := metadata.LoadBoundaries(filepath.Join(dir, "boundaries.json"))
	if err != nil {
		t.Fatal(err)
	}
	src, err := metadata.ReadVerses(filepath.Join(dir, "quran.txt"))
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "quran.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if err := st.Init(ctx, src.Verses, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := pipeline.Run(ctx, st, pipeline.Options{
		Chapters:   chapters,
		Boundaries: b,
		Observer:   pipeline.NopObserver{},
	}); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestExportFiles(t *testing.T) {
	ctx := context.Background()
	st := normalizedMini(t)

	for _, f := range []Format{FormatCSV, FormatJSON, FormatXML} {
		t.Run(string(f), func(t *testing.T) {
			dir := t.TempDir()
			paths, err := Export(ctx, st, dir, f)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if len(paths) != len(store.ExportTables()) {
				t.Fatalf("wrote %d files, want %d", len(paths), len(store.ExportTables()))
			}
			want := filepath.Join(dir, "verses."+string(f))
			if paths[len(paths)-1] != want {
				t.Errorf("last path = %s, want %s", paths[len(paths)-1], want)
			}
		})
	}
}

func TestExportWorkbook(t *testing.T) {
	ctx := context.Background()
	st := normalizedMini(t)
	dir := t.TempDir()

	paths, err := Export(ctx, st, dir, FormatXLSX, "parts", "verses")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != WorkbookName {
		t.Fatalf("paths = %v", paths)
	}

	f, err := excelize.OpenFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"parts", "verses"}) {
		t.Errorf("sheets = %v", got)
	}
	rows, err := f.GetRows("verses")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 26 {
		t.Errorf("verses sheet has %d rows, want header + 25", len(rows))
	}
	parts, err := f.GetRows("parts")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 || parts[1][1] != "Part 1" {
		t.Errorf("parts sheet = %v", parts)
	}
}

func TestExportUnknownTable(t *testing.T) {
	st := normalizedMini(t)
	_, err := Export(context.Background(), st, t.TempDir(), FormatCSV, "surahs")
	if !errors.Is(err, mushaferrors.ErrNotFound) {
		t.Errorf("Export() error = %v, want ErrNotFound", err)
	}
}
