// Package metadata loads the inputs of a normalization run: chapter
// metadata, boundary markers and the raw verse source.
package metadata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

//go:embed chapters.yaml
var embeddedChapters []byte

// Revelation places.
const (
	Meccan  = "Meccan"
	Medinan = "Medinan"
)

// Chapter is one row of chapter metadata.
type Chapter struct {
	ID      int    `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	NameAlt string `yaml:"name_alt" json:"name_alt"`
	Order   int    `yaml:"order" json:"order"`
	Type    string `yaml:"type" json:"type"`
	Verses  int    `yaml:"verses" json:"verses"`
}

// DefaultChapters returns the packaged 114-chapter metadata.
func DefaultChapters() ([]Chapter, error) {
	return decodeChapters(embeddedChapters, "embedded chapters")
}

// LoadChapters reads chapter metadata from a YAML (or JSON) file. An empty
// path selects the packaged metadata.
func LoadChapters(path string) ([]Chapter, error) {
	if path == "" {
		return DefaultChapters()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mushaferrors.NewIO("open", path, err)
	}
	fileType, err := validation.DetectFileType(bytes.NewReader(data), path)
	if err != nil {
		return nil, mushaferrors.NewUnsupported("chapter metadata", err.Error())
	}
	switch fileType {
	case validation.FileTypeYAML, validation.FileTypeJSON, validation.FileTypeText:
		return decodeChapters(data, path)
	}
	return nil, mushaferrors.NewUnsupported("chapter metadata", string(fileType))
}

// ParseChapters decodes and validates a YAML chapter list.
func ParseChapters(r io.Reader, source string) ([]Chapter, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mushaferrors.NewIO("read", source, err)
	}
	return decodeChapters(data, source)
}

func decodeChapters(data []byte, source string) ([]Chapter, error) {
	var chapters []Chapter
	if err := yaml.Unmarshal(data, &chapters); err != nil {
		return nil, &mushaferrors.ParseError{Format: "YAML", Path: source, Message: err.Error(), Err: err}
	}
	if err := validateChapters(chapters, source); err != nil {
		return nil, err
	}
	return chapters, nil
}

// validateChapters requires dense ids 1..n in order, a known revelation
// place and a positive verse count when one is given.
func validateChapters(chapters []Chapter, source string) error {
	if len(chapters) == 0 {
		return mushaferrors.NewConfiguration(source, "no chapters")
	}
	for i, c := range chapters {
		if c.ID != i+1 {
			return mushaferrors.NewConfiguration(source, "chapter %d has id %d, ids must be 1..%d in order", i+1, c.ID, len(chapters))
		}
		if c.Name == "" {
			return mushaferrors.NewConfiguration(source, "chapter %d has no name", c.ID)
		}
		if c.Type != Meccan && c.Type != Medinan {
			return mushaferrors.NewConfiguration(source, "chapter %d has type %q, want %s or %s", c.ID, c.Type, Meccan, Medinan)
		}
		if c.Verses < 0 {
			return mushaferrors.NewConfiguration(source, "chapter %d has negative verse count", c.ID)
		}
	}
	return nil
}

// CheckVerseCounts compares the verses per chapter of the source against
// the metadata. Chapters declaring 0 verses are not checked.
func CheckVerseCounts(chapters []Chapter, verses []partition.Verse) error {
	got := make(map[int]int, len(chapters))
	for _, v := range verses {
		if v.ChapterID < 1 || v.ChapterID > len(chapters) {
			return mushaferrors.NewConfiguration("chapters",
				"verse %s references chapter %d, metadata has %d chapters", v.Ref(), v.ChapterID, len(chapters))
		}
		got[v.ChapterID]++
	}
	for _, c := range chapters {
		if c.Verses == 0 {
			continue
		}
		if got[c.ID] != c.Verses {
			return mushaferrors.NewConfiguration("chapters",
				"chapter %d (%s) has %d verses in the source, metadata says %d", c.ID, c.Name, got[c.ID], c.Verses)
		}
	}
	return nil
}

// String renders a chapter as "id name".
func (c Chapter) String() string {
	return fmt.Sprintf("%d %s", c.ID, c.Name)
}
