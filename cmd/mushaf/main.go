// Command mushaf loads a chapter/verse corpus into SQLite and normalizes it
// into chapters, parts, groups, quarters and pages.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/olekukonko/tablewriter"

	"github.com/FocuswithJustin/mushaf/core/sqlite"
	"github.com/FocuswithJustin/mushaf/internal/config"
	"github.com/FocuswithJustin/mushaf/internal/export"
	"github.com/FocuswithJustin/mushaf/internal/logging"
	"github.com/FocuswithJustin/mushaf/internal/metadata"
	"github.com/FocuswithJustin/mushaf/internal/pipeline"
	"github.com/FocuswithJustin/mushaf/internal/replay"
	"github.com/FocuswithJustin/mushaf/internal/store"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

const version = "0.1.0"

// Globals are flags shared by every command. Set flags override the
// MUSHAF_* environment.
type Globals struct {
	DB        string `name:"db" help:"SQLite database path (MUSHAF_DB)" type:"path"`
	LogLevel  string `name:"log-level" help:"debug, info, warn or error (MUSHAF_LOG_LEVEL)"`
	LogFormat string `name:"log-format" help:"text or json (MUSHAF_LOG_FORMAT)"`

	cfg config.Config `kong:"-"`
	out io.Writer     `kong:"-"`
}

// CLI defines the command-line interface for mushaf.
type CLI struct {
	Globals

	Init      InitCmd      `cmd:"" help:"Load a verse source into the raw table"`
	Normalize NormalizeCmd `cmd:"" help:"Partition the raw verses into the normalized tables"`
	Replay    ReplayCmd    `cmd:"" help:"Apply a statement export to the database"`
	Export    ExportCmd    `cmd:"" help:"Export normalized tables to files"`
	Clear     ClearCmd     `cmd:"" help:"Drop the raw verse table"`
	Stats     StatsCmd     `cmd:"" help:"Print table counts and run info"`
	Query     QueryCmd     `cmd:"" help:"Run a read-only SQL query"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// setup loads config, applies flag overrides and initializes logging.
func (g *Globals) setup(out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if g.DB != "" {
		cfg.DBPath = g.DB
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	g.cfg = cfg
	g.out = out
	return nil
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

func (g *Globals) openStore() (*store.Store, error) {
	if err := g.cfg.Require("MUSHAF_DB", g.cfg.DBPath); err != nil {
		return nil, err
	}
	return store.Open(g.cfg.DBPath)
}

func (g *Globals) openStoreReadOnly() (*store.Store, error) {
	if err := g.cfg.Require("MUSHAF_DB", g.cfg.DBPath); err != nil {
		return nil, err
	}
	return store.OpenReadOnly(g.cfg.DBPath)
}

func (g *Globals) chapters(path string) ([]metadata.Chapter, error) {
	if path == "" {
		path = g.cfg.ChaptersPath
	}
	return metadata.LoadChapters(path)
}

// InitCmd loads a verse source into a fresh raw table.
type InitCmd struct {
	Source   string `arg:"" help:"chapter|verse|text file, optionally xz-compressed" type:"existingfile"`
	Variant  string `help:"Corpus variant recorded in info (e.g. simple, uthmani)" default:"simple"`
	Chapters string `help:"Chapter metadata YAML (MUSHAF_CHAPTERS, default embedded)" type:"path"`
}

func (c *InitCmd) Run(g *Globals) error {
	ctx := context.Background()

	chapters, err := g.chapters(c.Chapters)
	if err != nil {
		return err
	}
	src, err := metadata.ReadVerses(c.Source)
	if err != nil {
		return err
	}
	if err := metadata.CheckVerseCounts(chapters, src.Verses); err != nil {
		return err
	}

	st, err := g.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	info := map[string]string{
		"source":         filepath.Base(c.Source),
		"source_blake3":  src.Digest,
		"variant":        c.Variant,
		"initialized_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := st.Init(ctx, src.Verses, info); err != nil {
		return err
	}
	logging.Info("verses loaded", "path", c.Source, "verses", len(src.Verses), "blake3", src.Digest)
	fmt.Fprintf(g.stdout(), "Loaded %d verses into %s\n", len(src.Verses), st.Path())
	return nil
}

// NormalizeCmd runs the partitioning pipeline.
type NormalizeCmd struct {
	Metadata       string `help:"Boundary markers, .json or .xml (MUSHAF_METADATA)" type:"path"`
	Chapters       string `help:"Chapter metadata YAML (MUSHAF_CHAPTERS, default embedded)" type:"path"`
	Emit           string `help:"Write statement files to this directory instead of applying them" type:"path"`
	Compress       bool   `help:"xz-compress emitted statement files"`
	ExpectedVerses int    `name:"expected-verses" help:"Required verse count, 0 disables (MUSHAF_EXPECTED_VERSES)" default:"-1"`
	RunID          string `name:"run-id" help:"Run id recorded in info (default random)"`
}

func (c *NormalizeCmd) Run(g *Globals) error {
	ctx := context.Background()

	metadataPath := c.Metadata
	if metadataPath == "" {
		metadataPath = g.cfg.MetadataPath
	}
	if err := g.cfg.Require("MUSHAF_METADATA", metadataPath); err != nil {
		return err
	}
	boundaries, err := metadata.LoadBoundaries(metadataPath)
	if err != nil {
		return err
	}
	chapters, err := g.chapters(c.Chapters)
	if err != nil {
		return err
	}
	expected := c.ExpectedVerses
	if expected < 0 {
		expected = g.cfg.ExpectedVerses
	}

	opts := pipeline.Options{
		Chapters:       chapters,
		Boundaries:     boundaries,
		ExpectedVerses: expected,
		RunID:          c.RunID,
	}
	if c.Emit != "" {
		opts.Emitter = &replay.Writer{Dir: c.Emit, Compress: c.Compress}
	}

	st, err := g.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := pipeline.Run(ctx, st, opts)
	if err != nil {
		return err
	}

	out := g.stdout()
	if c.Emit != "" {
		fmt.Fprintf(out, "Run %s: statements written to %s\n", res.RunID, c.Emit)
		return nil
	}
	fmt.Fprintf(out, "Run %s: normalized %d verses\n", res.RunID, res.Layout.Last)
	return nil
}

// ReplayCmd applies a statement export.
type ReplayCmd struct {
	Dir string `arg:"" help:"Directory written by normalize --emit" type:"existingdir"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	ctx := context.Background()
	st, err := g.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := replay.Apply(ctx, st, c.Dir)
	if err != nil {
		return err
	}
	logging.Info("statements replayed", "dir", c.Dir, "run_id", m.RunID, "files", len(m.Files), "statements", m.Statements)
	fmt.Fprintf(g.stdout(), "Replayed run %s: %d statements from %d files\n", m.RunID, m.Statements, len(m.Files))
	return nil
}

// ExportCmd writes normalized tables to files.
type ExportCmd struct {
	Format string   `help:"csv, json, xml or xlsx (MUSHAF_EXPORT_FORMAT)"`
	Out    string   `help:"Output directory (MUSHAF_EXPORT_DIR)" type:"path"`
	Tables []string `arg:"" optional:"" help:"Tables or views to export (default all normalized tables)"`
}

func (c *ExportCmd) Run(g *Globals) error {
	formatName := c.Format
	if formatName == "" {
		formatName = g.cfg.ExportFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	dir := c.Out
	if dir == "" {
		dir = g.cfg.ExportDir
	}

	st, err := g.openStoreReadOnly()
	if err != nil {
		return err
	}
	defer st.Close()

	paths, err := export.Export(context.Background(), st, dir, format, c.Tables...)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(g.stdout(), p)
	}
	return nil
}

// ClearCmd drops the raw table once normalization is done.
type ClearCmd struct{}

func (c *ClearCmd) Run(g *Globals) error {
	st, err := g.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Dropped table %s\n", store.RawTable)
	return nil
}

// StatsCmd prints per-table totals and the info table.
type StatsCmd struct{}

func (c *StatsCmd) Run(g *Globals) error {
	ctx := context.Background()
	st, err := g.openStoreReadOnly()
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Summary(ctx)
	if err != nil {
		return err
	}
	info, err := st.Info(ctx)
	if err != nil {
		return err
	}

	out := g.stdout()
	if len(summary) == 0 {
		fmt.Fprintln(out, "No normalized tables.")
	} else {
		rows := make([][]string, 0, len(summary))
		for _, s := range summary {
			pages := ""
			if s.PageCount > 0 {
				pages = strconv.Itoa(s.PageCount)
			}
			rows = append(rows, []string{s.Table, strconv.Itoa(s.Rows), strconv.Itoa(s.VerseCount), pages})
		}
		renderTable(out, []string{"table", "rows", "verses", "pages"}, rows)
	}

	if len(info) > 0 {
		names := make([]string, 0, len(info))
		for name := range info {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, info[name]})
		}
		fmt.Fprintln(out)
		renderTable(out, []string{"name", "value"}, rows)
	}
	return nil
}

// QueryCmd runs one SQL statement against a read-only connection.
type QueryCmd struct {
	SQL string `arg:"" help:"SQL to run, e.g. 'SELECT * FROM page_details WHERE page_id = 1'"`
}

func (c *QueryCmd) Run(g *Globals) error {
	st, err := g.openStoreReadOnly()
	if err != nil {
		return err
	}
	defer st.Close()

	t, err := st.Query(context.Background(), c.SQL)
	if err != nil {
		return err
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = cellText(v)
		}
	}
	renderTable(g.stdout(), t.Columns, rows)
	fmt.Fprintf(g.stdout(), "(%d rows)\n", len(rows))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	out := g.stdout()
	fmt.Fprintf(out, "mushaf version %s\n", version)

	db, err := sqlite.Open(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()
	engine, err := sqlite.EngineVersion(context.Background(), db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sqlite %s, driver %s\n", engine, sqlite.CurrentDriver())
	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// checkPaths rejects malformed path flags before any command runs.
func (cli *CLI) checkPaths() error {
	for _, p := range []string{cli.DB, cli.Init.Chapters, cli.Normalize.Metadata, cli.Normalize.Emit, cli.Export.Out} {
		if p == "" {
			continue
		}
		if err := validation.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid path %q: %w", p, err)
		}
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mushaf"),
		kong.Description("Normalize a chapter/verse corpus into partitioned SQLite tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := cli.checkPaths()
	if err == nil {
		err = cli.Globals.setup(os.Stdout)
	}
	if err == nil {
		err = ctx.Run(&cli.Globals)
	}
	ctx.FatalIfErrorf(err)
}
