// Package ref parses and formats chapter/verse references such as "2:142".
package ref

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Ref identifies a verse by chapter id and local (1-based) verse number.
type Ref struct {
	Chapter int
	Verse   int
}

// refGrammar is the participle grammar for chapter/verse references.
// Examples: "1:1", "2:142", "2.142", " 114 : 6 "
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Chapter int `parser:"@Int"`
	Verse   int `parser:"( \":\" | \".\" ) @Int"`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a "chapter:verse" reference. A dot is accepted in place of
// the colon.
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty reference string")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid reference format: %q: %w", s, err)
	}

	r := Ref{Chapter: parsed.Chapter, Verse: parsed.Verse}
	if err := r.Validate(); err != nil {
		return Ref{}, err
	}
	return r, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level tables.
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate reports whether both components are 1-based.
func (r Ref) Validate() error {
	if r.Chapter < 1 || r.Verse < 1 {
		return fmt.Errorf("invalid reference %s: chapter and verse must be positive", r)
	}
	return nil
}

// String returns the "chapter:verse" form.
func (r Ref) String() string {
	return strconv.Itoa(r.Chapter) + ":" + strconv.Itoa(r.Verse)
}

// Less orders references by chapter, then verse.
func (r Ref) Less(other Ref) bool {
	if r.Chapter != other.Chapter {
		return r.Chapter < other.Chapter
	}
	return r.Verse < other.Verse
}

// MarshalJSON encodes the reference as a [chapter, verse] pair.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Chapter, r.Verse})
}

// UnmarshalJSON accepts either a [chapter, verse] pair or a "chapter:verse"
// string.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("reference pair must have 2 elements, got %d", len(pair))
		}
		parsed := Ref{Chapter: pair[0], Verse: pair[1]}
		if err := parsed.Validate(); err != nil {
			return err
		}
		*r = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reference must be a [chapter, verse] pair or a string: %s", data)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
