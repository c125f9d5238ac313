package metadata

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/mushaf/core/cas"
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

// maxLineSize bounds a single verse line.
const maxLineSize = 1 << 20

// VerseSource is a parsed raw verse file.
type VerseSource struct {
	Path   string
	Digest string // BLAKE3 of the decompressed text
	Bytes  int64  // size of the decompressed text
	Verses []partition.Verse
}

// Numbered returns the verses in (chapter, number) order with global ids
// 1..N, as the store numbers them.
func (s *VerseSource) Numbered() []partition.Verse {
	return partition.Number(s.Verses)
}

// ReadVerses reads a chapter|verse|text file, decompressing it first when
// its content is xz. Verse ids are left zero; use Numbered for ids.
func ReadVerses(path string) (*VerseSource, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("verse source: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, mushaferrors.NewIO("open", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, mushaferrors.NewIO("read", path, err)
	}
	fileType, err := validation.DetectFileType(bytes.NewReader(header), path)
	if err != nil {
		return nil, &mushaferrors.ParseError{Format: "verses", Path: path, Message: err.Error(), Err: err}
	}

	var r io.Reader = br
	switch fileType {
	case validation.FileTypeXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, mushaferrors.NewIO("decompress", path, err)
		}
		r = xzr
	case validation.FileTypeText:
	default:
		return nil, mushaferrors.NewUnsupported("verse source", string(fileType))
	}

	return ParseVerses(r, path)
}

// ParseVerses parses chapter|verse|text lines. Blank lines and lines
// starting with '#' are skipped. The text keeps any further '|'.
func ParseVerses(r io.Reader, source string) (*VerseSource, error) {
	hasher := cas.NewHasher()
	scanner := bufio.NewScanner(io.TeeReader(r, hasher))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	src := &VerseSource{Path: source}
	seen := make(map[[2]int]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, "|", 3)
		if len(fields) != 3 {
			return nil, parseErr(source, lineNo, "want chapter|verse|text, got %d fields", len(fields))
		}
		chapter, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || chapter < 1 {
			return nil, parseErr(source, lineNo, "invalid chapter %q", fields[0])
		}
		number, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || number < 1 {
			return nil, parseErr(source, lineNo, "invalid verse number %q", fields[1])
		}
		key := [2]int{chapter, number}
		if prev, dup := seen[key]; dup {
			return nil, parseErr(source, lineNo, "duplicate verse %d:%d (first on line %d)", chapter, number, prev)
		}
		seen[key] = lineNo

		src.Verses = append(src.Verses, partition.Verse{
			ChapterID: chapter,
			Number:    number,
			Content:   fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, mushaferrors.NewIO("read", source, err)
	}
	if len(src.Verses) == 0 {
		return nil, mushaferrors.NewConfiguration(source, "no verses")
	}
	src.Digest = hasher.Hex()
	src.Bytes = hasher.Size()
	return src, nil
}

// WriteVerses writes verses in the format ParseVerses reads.
func WriteVerses(w io.Writer, verses []partition.Verse) error {
	bw := bufio.NewWriter(w)
	for _, v := range verses {
		if _, err := fmt.Fprintf(bw, "%d|%d|%s\n", v.ChapterID, v.Number, v.Content); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteVersesXZ writes verses xz-compressed.
func WriteVersesXZ(w io.Writer, verses []partition.Verse) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	if err := WriteVerses(xzw, verses); err != nil {
		xzw.Close()
		return err
	}
	return xzw.Close()
}

func parseErr(source string, line int, format string, args ...any) error {
	return mushaferrors.NewParse("verses", fmt.Sprintf("%s:%d", source, line), fmt.Sprintf(format, args...))
}
