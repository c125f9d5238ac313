// Package replay writes a plan as numbered SQL files with a digest
// manifest, and loads them back for execution against another store.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/mushaf/core/cas"
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/plan"
	"github.com/FocuswithJustin/mushaf/internal/logging"
	"github.com/FocuswithJustin/mushaf/internal/store"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

// ManifestName is the manifest file written next to the statement files.
const ManifestName = "manifest.json"

// ManifestVersion is bumped when the layout of the directory changes.
const ManifestVersion = 2

// Manifest records the statement files of one run in execution order,
// along with the corpus they were computed from.
type Manifest struct {
	Version      int         `json:"version"`
	RunID        string      `json:"run_id"`
	CreatedAt    time.Time   `json:"created_at"`
	VerseCount   int         `json:"verse_count"`
	SourceBlake3 string      `json:"source_blake3,omitempty"`
	Compressed   bool        `json:"compressed"`
	Statements   int         `json:"statements"`
	Files        []FileEntry `json:"files"`
}

// FileEntry describes one statement file. Blake3 covers the bytes on disk.
type FileEntry struct {
	Name       string `json:"name"`
	Step       string `json:"step"`
	Statements int    `json:"statements"`
	Bytes      int64  `json:"bytes"`
	Blake3     string `json:"blake3"`
}

// Writer emits plans as statement files into Dir.
type Writer struct {
	Dir      string
	Compress bool
	// Now stamps the manifest. Nil uses time.Now.
	Now func() time.Time
}

// Emit writes p. It refuses a directory that already holds a manifest.
func (w *Writer) Emit(ctx context.Context, p *plan.Plan, fn store.StepFunc) error {
	_, err := w.Write(ctx, p, fn)
	return err
}

// Write renders each step of p into NN-<step>.sql (or .sql.xz) and then
// writes the manifest. fn, when non-nil, is called around each step.
func (w *Writer) Write(ctx context.Context, p *plan.Plan, fn store.StepFunc) (*Manifest, error) {
	if err := validation.ValidatePath(w.Dir); err != nil {
		return nil, fmt.Errorf("statement directory: %w", err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, mushaferrors.NewIO("create", w.Dir, err)
	}
	manifestPath, err := validation.JoinWithin(w.Dir, ManifestName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(manifestPath); err == nil {
		return nil, mushaferrors.NewConfiguration(w.Dir, "already holds a statement export (%s)", ManifestName)
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	m := &Manifest{
		Version:      ManifestVersion,
		RunID:        p.Origin.RunID,
		CreatedAt:    now().UTC(),
		VerseCount:   p.Origin.VerseCount,
		SourceBlake3: p.Origin.SourceBlake3,
		Compressed:   w.Compress,
	}

	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fn != nil {
			fn(i, step, false)
		}
		entry, err := w.writeStep(ctx, i, step)
		if err != nil {
			return nil, err
		}
		if fn != nil {
			fn(i, step, true)
		}
		m.Files = append(m.Files, entry)
		m.Statements += entry.Statements
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0o644); err != nil {
		return nil, mushaferrors.NewIO("write", manifestPath, err)
	}
	return m, nil
}

func (w *Writer) writeStep(ctx context.Context, i int, step *plan.Step) (FileEntry, error) {
	stepName, err := validation.SanitizeFilename(step.Name)
	if err != nil {
		return FileEntry{}, fmt.Errorf("step %q: %w", step.Name, err)
	}
	name := fmt.Sprintf("%02d-%s.sql", i+1, stepName)
	if w.Compress {
		name += ".xz"
	}
	path, err := validation.JoinWithin(w.Dir, name)
	if err != nil {
		return FileEntry{}, err
	}

	text, err := plan.RenderStep(step)
	if err != nil {
		return FileEntry{}, err
	}
	var body bytes.Buffer
	fmt.Fprintf(&body, "-- step %d: %s (%d statements)\n", i+1, step.Name, len(step.Ops))
	body.WriteString(text)

	data := body.Bytes()
	if w.Compress {
		if data, err = compress(data); err != nil {
			return FileEntry{}, fmt.Errorf("compress %s: %w", name, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return FileEntry{}, mushaferrors.NewIO("write", path, err)
	}

	entry := FileEntry{
		Name:       name,
		Step:       step.Name,
		Statements: len(step.Ops),
		Bytes:      int64(len(data)),
		Blake3:     cas.Blake3Hash(data),
	}
	logging.StatementsWritten(ctx, path, entry.Statements, entry.Blake3)
	return entry, nil
}

// Load reads the manifest in dir, verifies every file digest and returns
// the decompressed scripts in execution order.
func Load(dir string) (*Manifest, []store.Script, error) {
	manifestPath, err := validation.JoinWithin(dir, ManifestName)
	if err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, mushaferrors.NewIO("read", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, &mushaferrors.ParseError{Format: "JSON", Path: manifestPath, Message: err.Error(), Err: err}
	}
	if m.Version != ManifestVersion {
		return nil, nil, mushaferrors.NewUnsupported("manifest version", fmt.Sprint(m.Version))
	}
	if len(m.Files) == 0 {
		return nil, nil, mushaferrors.NewConfiguration(manifestPath, "no statement files listed")
	}
	if m.VerseCount <= 0 {
		return nil, nil, mushaferrors.NewConfiguration(manifestPath, "verse_count missing")
	}

	scripts := make([]store.Script, 0, len(m.Files))
	for _, f := range m.Files {
		path, err := validation.JoinWithin(dir, f.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("manifest entry %q: %w", f.Name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, mushaferrors.NewIO("read", path, err)
		}
		if err := cas.Verify(f.Name, data, f.Blake3); err != nil {
			return nil, nil, err
		}
		if strings.HasSuffix(f.Name, ".xz") {
			if data, err = decompress(data); err != nil {
				return nil, nil, mushaferrors.NewIO("decompress", path, err)
			}
		}
		scripts = append(scripts, store.Script{Name: f.Name, SQL: string(data)})
	}
	return &m, scripts, nil
}

// Apply loads the statements in dir and executes them against st in one
// transaction. st must not be normalized yet and its raw corpus must be the
// one the statements were computed from.
func Apply(ctx context.Context, st *store.Store, dir string) (*Manifest, error) {
	if err := st.CheckNotNormalized(ctx); err != nil {
		return nil, err
	}
	m, scripts, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if err := checkCorpus(ctx, st, m); err != nil {
		return nil, err
	}
	if err := st.ApplyScripts(ctx, scripts); err != nil {
		return nil, err
	}
	return m, nil
}

// checkCorpus compares the raw corpus of st with the one recorded in m.
func checkCorpus(ctx context.Context, st *store.Store, m *Manifest) error {
	n, err := st.RawCount(ctx)
	if err != nil {
		return err
	}
	if n != m.VerseCount {
		return mushaferrors.NewIntegrity("verse_count",
			"store holds %d raw verses, statements of run %s were computed from %d", n, m.RunID, m.VerseCount)
	}
	if m.SourceBlake3 == "" {
		return nil
	}
	info, err := st.Info(ctx)
	if err != nil {
		return err
	}
	if digest := info["source_blake3"]; digest != "" && digest != m.SourceBlake3 {
		return mushaferrors.NewIntegrity("source_blake3",
			"store source %s differs from %s recorded by run %s", digest, m.SourceBlake3, m.RunID)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
