package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
)

func TestDefaultChapters(t *testing.T) {
	chapters, err := DefaultChapters()
	if err != nil {
		t.Fatalf("DefaultChapters() error = %v", err)
	}
	if len(chapters) != 114 {
		t.Fatalf("got %d chapters, want 114", len(chapters))
	}
	total := 0
	for _, c := range chapters {
		total += c.Verses
	}
	if total != 6236 {
		t.Errorf("declared verses = %d, want 6236", total)
	}

	orders := make(map[int]bool)
	medinan := 0
	for _, c := range chapters {
		if c.Order < 1 || c.Order > 114 || orders[c.Order] {
			t.Errorf("chapter %d has invalid or repeated order %d", c.ID, c.Order)
		}
		orders[c.Order] = true
		if c.Type == Medinan {
			medinan++
		}
		if c.NameAlt == "" {
			t.Errorf("chapter %d has no Arabic name", c.ID)
		}
	}
	if medinan != 28 {
		t.Errorf("got %d Medinan chapters, want 28", medinan)
	}

	tests := []struct {
		id     int
		name   string
		order  int
		typ    string
		verses int
	}{
		{1, "Al-Fatiha", 5, Meccan, 7},
		{2, "Al-Baqara", 87, Medinan, 286},
		{96, "Al-Alaq", 1, Meccan, 19},
		{114, "An-Naas", 21, Meccan, 6},
	}
	for _, tt := range tests {
		c := chapters[tt.id-1]
		if c.Name != tt.name || c.Order != tt.order || c.Type != tt.typ || c.Verses != tt.verses {
			t.Errorf("chapter %d = %+v", tt.id, c)
		}
	}
}

func TestLoadChaptersFile(t *testing.T) {
	chapters, err := LoadChapters("../../testdata/mini/chapters.yaml")
	if err != nil {
		t.Fatalf("LoadChapters() error = %v", err)
	}
	if len(chapters) != 3 || chapters[1].Name != "Beta" || chapters[1].Verses != 12 {
		t.Errorf("unexpected chapters: %+v", chapters)
	}
	if chapters[2].String() != "3 Gamma" {
		t.Errorf("String() = %q", chapters[2].String())
	}

	_, err = LoadChapters("../../testdata/mini/missing.yaml")
	var ioErr *mushaferrors.IOError
	if !mushaferrors.As(err, &ioErr) {
		t.Errorf("LoadChapters(missing) = %v, want IOError", err)
	}
}

func TestParseChaptersInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"empty", "[]", mushaferrors.ErrConfiguration},
		{"gap in ids", "- {id: 1, name: A, type: Meccan}\n- {id: 3, name: B, type: Meccan}\n", mushaferrors.ErrConfiguration},
		{"bad type", "- {id: 1, name: A, type: Other}\n", mushaferrors.ErrConfiguration},
		{"no name", "- {id: 1, type: Meccan}\n", mushaferrors.ErrConfiguration},
		{"negative verses", "- {id: 1, name: A, type: Meccan, verses: -2}\n", mushaferrors.ErrConfiguration},
		{"not yaml", "- id: [", mushaferrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChapters(strings.NewReader(tt.yaml), "test")
			if tt.want == mushaferrors.ErrInvalidInput {
				var pe *mushaferrors.ParseError
				if !mushaferrors.As(err, &pe) {
					t.Errorf("ParseChapters() = %v, want ParseError", err)
				}
				return
			}
			if !mushaferrors.Is(err, tt.want) {
				t.Errorf("ParseChapters() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckVerseCounts(t *testing.T) {
	chapters := []Chapter{
		{ID: 1, Name: "A", Type: Meccan, Verses: 2},
		{ID: 2, Name: "B", Type: Meccan, Verses: 1},
		{ID: 3, Name: "C", Type: Meccan},
	}
	verses := []partition.Verse{
		{ChapterID: 1, Number: 1}, {ChapterID: 1, Number: 2},
		{ChapterID: 2, Number: 1},
		{ChapterID: 3, Number: 1}, {ChapterID: 3, Number: 2},
	}
	if err := CheckVerseCounts(chapters, verses); err != nil {
		t.Errorf("CheckVerseCounts() = %v, want nil", err)
	}

	short := verses[1:]
	if err := CheckVerseCounts(chapters, short); !mushaferrors.Is(err, mushaferrors.ErrConfiguration) {
		t.Errorf("CheckVerseCounts(short) = %v, want ConfigurationError", err)
	}

	stray := append([]partition.Verse{}, verses...)
	stray = append(stray, partition.Verse{ChapterID: 4, Number: 1})
	if err := CheckVerseCounts(chapters, stray); !mushaferrors.Is(err, mushaferrors.ErrConfiguration) {
		t.Errorf("CheckVerseCounts(stray chapter) = %v, want ConfigurationError", err)
	}
}

func TestLoadChaptersFormats(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	jsonPath := write("chapters.json", []byte(`[{"id": 1, "name": "Alpha", "order": 1, "type": "Meccan", "verses": 3}]`))
	chapters, err := LoadChapters(jsonPath)
	if err != nil {
		t.Fatalf("LoadChapters(json) error = %v", err)
	}
	if len(chapters) != 1 || chapters[0].Name != "Alpha" {
		t.Errorf("LoadChapters(json) = %+v", chapters)
	}

	for _, path := range []string{
		write("chapters.db", []byte("SQLite format 3\x00")),
		write("chapters.xml", []byte("<chapters/>")),
	} {
		if _, err := LoadChapters(path); !mushaferrors.Is(err, mushaferrors.ErrUnsupported) {
			t.Errorf("LoadChapters(%s) = %v, want UnsupportedError", filepath.Base(path), err)
		}
	}
}
