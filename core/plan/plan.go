// Package plan describes the mutations of a normalization run as ordered,
// named steps of SQL operations. A Plan is executed live by the store or
// rendered to replayable SQL text.
package plan

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/mushaf/core/encoding"
	"github.com/FocuswithJustin/mushaf/core/partition"
)

//go:embed sql/normalized.sql
var normalizedSchema string

//go:embed sql/views.sql
var viewsSchema string

// Type classifies an operation.
type Type int

const (
	TypeSchema Type = iota
	TypeChapter
	TypeLoadVerses
	TypePartition
	TypeAssign
	TypeVerseCount
	TypeParents
	TypePageCount
	TypeViews
	TypeInfo
)

var typeNames = [...]string{"schema", "chapter", "load_verses", "partition", "assign", "verse_count", "parents", "page_count", "views", "info"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Op is one intended mutation: a statement with positional ? placeholders
// and its arguments. Script ops (schema, views) carry several statements
// and no arguments.
type Op struct {
	Type  Type
	Query string
	Args  []any
}

// SQL returns the statement and its arguments for live execution.
func (o Op) SQL() (string, []any) {
	return o.Query, o.Args
}

// Step is a named, ordered group of operations.
type Step struct {
	Name string
	Ops  []Op
}

// Add appends operations to the step.
func (s *Step) Add(ops ...Op) {
	s.Ops = append(s.Ops, ops...)
}

// Origin identifies the corpus a plan was computed from.
type Origin struct {
	RunID      string
	VerseCount int
	// SourceBlake3 is the digest of the verse text, empty when unknown.
	SourceBlake3 string
}

// Plan is the full ordered list of steps.
type Plan struct {
	Origin Origin
	Steps  []*Step
}

// AddStep appends and returns a new empty step.
func (p *Plan) AddStep(name string) *Step {
	s := &Step{Name: name}
	p.Steps = append(p.Steps, s)
	return s
}

// Statements returns the number of operations across all steps.
func (p *Plan) Statements() int {
	n := 0
	for _, s := range p.Steps {
		n += len(s.Ops)
	}
	return n
}

// Step returns the step named name, or nil.
func (p *Plan) Step(name string) *Step {
	for _, s := range p.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// CreateSchema creates the normalized tables and indexes.
func CreateSchema() Op {
	return Op{Type: TypeSchema, Query: strings.TrimSpace(normalizedSchema)}
}

// CreateViews creates the convenience views over the normalized tables.
func CreateViews() Op {
	return Op{Type: TypeViews, Query: strings.TrimSpace(viewsSchema)}
}

// InsertChapter adds one chapter row.
func InsertChapter(id int, name, nameAlt string, order int, typ string) Op {
	var alt any
	if nameAlt != "" {
		alt = nameAlt
	}
	return Op{
		Type:  TypeChapter,
		Query: `INSERT INTO "chapters" ("id", "name", "name_alt", "order", "type") VALUES (?, ?, ?, ?, ?)`,
		Args:  []any{id, name, alt, order, typ},
	}
}

// LoadVerses copies the raw verses into the normalized verse table. Ids are
// positions in (chapter_id, number) order, independent of raw row order.
func LoadVerses() Op {
	return Op{
		Type: TypeLoadVerses,
		Query: `INSERT INTO "verses" ("id", "chapter_id", "number", "content") ` +
			`SELECT ROW_NUMBER() OVER (ORDER BY "chapter_id", "number"), "chapter_id", "number", "content" FROM "quran"`,
	}
}

// InsertPartition adds a partition row named "<Title> <id>".
func InsertPartition(kind partition.Kind, id int) Op {
	return Op{
		Type:  TypePartition,
		Query: fmt.Sprintf(`INSERT INTO %s ("id", "name") VALUES (?, ?)`, encoding.QuoteIdent(kind.Table())),
		Args:  []any{id, fmt.Sprintf("%s %d", kind.Title(), id)},
	}
}

// AssignRange sets the kind's membership column on every verse of r.
func AssignRange(kind partition.Kind, id int, r partition.Range) Op {
	return Op{
		Type: TypeAssign,
		Query: fmt.Sprintf(`UPDATE "verses" SET %s = ? WHERE "id" BETWEEN ? AND ?`,
			encoding.QuoteIdent(kind.Column())),
		Args: []any{id, r.Start, r.End},
	}
}

// SetVerseCount stores a partition's verse count.
func SetVerseCount(kind partition.Kind, id, count int) Op {
	return Op{
		Type:  TypeVerseCount,
		Query: fmt.Sprintf(`UPDATE %s SET "verse_count" = ? WHERE "id" = ?`, encoding.QuoteIdent(kind.Table())),
		Args:  []any{count, id},
	}
}

// SetPageCount stores a partition's page count.
func SetPageCount(kind partition.Kind, id, count int) Op {
	return Op{
		Type:  TypePageCount,
		Query: fmt.Sprintf(`UPDATE %s SET "page_count" = ? WHERE "id" = ?`, encoding.QuoteIdent(kind.Table())),
		Args:  []any{count, id},
	}
}

// SetParents stores a partition's parent ids, in the kind's declared
// parent order.
func SetParents(kind partition.Kind, id int, parents partition.Parents) Op {
	links := partition.SpecFor(kind).Parents
	sets := make([]string, 0, len(links))
	args := make([]any, 0, len(links)+1)
	for _, link := range links {
		sets = append(sets, encoding.QuoteIdent(link.Kind.Column())+" = ?")
		args = append(args, parents[link.Kind])
	}
	args = append(args, id)
	return Op{
		Type: TypeParents,
		Query: fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = ?`,
			encoding.QuoteIdent(kind.Table()), strings.Join(sets, ", ")),
		Args: args,
	}
}

// SetInfo upserts a name/value pair in the info table.
func SetInfo(name, value string) Op {
	return Op{
		Type: TypeInfo,
		Query: `INSERT INTO "info" ("name", "value") VALUES (?, ?) ` +
			`ON CONFLICT ("name") DO UPDATE SET "value" = excluded."value"`,
		Args: []any{name, value},
	}
}
