package validation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"simple", "quran.db", nil},
		{"nested", "data/out/quran.db", nil},
		{"empty", "", ErrEmptyPath},
		{"too long", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
		{"null byte", "quran\x00.db", ErrInvalidCharacter},
		{"control", "quran\n.db", ErrInvalidCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"sql file", "05-assign.sql", nil},
		{"arabic", "الفاتحة.json", nil},
		{"empty", "", ErrInvalidFilename},
		{"dot", ".", ErrInvalidFilename},
		{"dotdot", "..", ErrInvalidFilename},
		{"slash", "a/b.sql", ErrInvalidFilename},
		{"backslash", "a\\b.sql", ErrInvalidFilename},
		{"hyphen", "-rf", ErrInvalidFilename},
		{"too long", strings.Repeat("x", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFilename(%q) = %v, want nil", tt.filename, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename(%q) = %v, want %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"assign parts", "assign_parts", false},
		{" page counts ", "page_counts", false},
		{"a/b", "a_b", false},
		{"--views", "views", false},
		{"", "", true},
		{"..", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinWithin(t *testing.T) {
	dir := t.TempDir()
	got, err := JoinWithin(dir, "manifest.json")
	if err != nil {
		t.Fatalf("JoinWithin() error = %v", err)
	}
	if got != filepath.Join(dir, "manifest.json") {
		t.Errorf("JoinWithin() = %q", got)
	}
	if _, err := JoinWithin(dir, ".."); err == nil {
		t.Error("JoinWithin(..) should fail")
	}
	if _, err := JoinWithin(dir, "../escape.sql"); err == nil {
		t.Error("JoinWithin(../escape.sql) should fail")
	}
}

func TestDetectFileType(t *testing.T) {
	xzHeader := []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x04}
	tests := []struct {
		name     string
		content  []byte
		filename string
		want     FileType
		wantErr  bool
	}{
		{"xz by magic", xzHeader, "quran.txt.xz", FileTypeXZ, false},
		{"xz without extension", xzHeader, "quran", FileTypeXZ, false},
		{"sqlite", []byte("SQLite format 3\x00rest"), "quran.db", FileTypeSQLite, false},
		{"json", []byte(`{"parts": [[1,1]]}`), "boundaries.json", FileTypeJSON, false},
		{"xml", []byte(`<boundaries/>`), "boundaries.xml", FileTypeXML, false},
		{"arabic text", []byte("1|1|بِسْمِ ٱللَّهِ\n"), "quran.txt", FileTypeText, false},
		{"unknown extension text", []byte("1|1|x\n"), "quran", FileTypeText, false},
		{"sql extension text", []byte("1|1|a\n1|2|b\n"), "quran.sql", FileTypeText, false},
		{"csv extension text", []byte("1|1|a\n1|2|b\n"), "quran.csv", FileTypeText, false},
		{"sqlite without extension", []byte("SQLite format 3\x00rest"), "quran", FileTypeSQLite, false},
		{"text named db", []byte("1|1|a\n"), "quran.db", FileTypeUnknown, true},
		{"text named xz", []byte("1|1|a\n"), "quran.txt.xz", FileTypeUnknown, true},
		{"mismatch", xzHeader, "quran.db", FileTypeUnknown, true},
		{"binary", []byte{0x00, 0x01, 0x02}, "quran.txt", FileTypeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(bytes.NewReader(tt.content), tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFileType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chapters.yml")
	if err := os.WriteFile(path, []byte("- id: 1\n  name: Alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := DetectFile(path)
	if err != nil || got != FileTypeYAML {
		t.Errorf("DetectFile() = %v, %v, want yaml", got, err)
	}
	if _, err := DetectFile(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DetectFile(missing) error = %v", err)
	}
}
