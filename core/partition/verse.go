package partition

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/FocuswithJustin/mushaf/core/ref"
)

// Verse is one unit of the corpus together with its partition membership.
// ID is the global 1-based position in (chapter, number) order.
type Verse struct {
	ID        int    `json:"id"`
	ChapterID int    `json:"chapter_id"`
	Number    int    `json:"number"`
	Content   string `json:"content"`
	PartID    int    `json:"part_id"`
	GroupID   int    `json:"group_id"`
	QuarterID int    `json:"quarter_id"`
	PageID    int    `json:"page_id"`
}

// Number returns a copy of verses sorted by (chapter, number) with ids
// assigned by position, the numbering every other function expects.
// Membership fields are cleared.
func Number(verses []Verse) []Verse {
	out := make([]Verse, len(verses))
	for i, v := range verses {
		out[i] = Verse{ChapterID: v.ChapterID, Number: v.Number, Content: v.Content}
	}
	slices.SortStableFunc(out, func(a, b Verse) int {
		if c := cmp.Compare(a.ChapterID, b.ChapterID); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// Ref returns the verse's chapter/verse reference.
func (v *Verse) Ref() ref.Ref {
	return ref.Ref{Chapter: v.ChapterID, Verse: v.Number}
}

// Key returns the verse's partition id for kind, 0 when unassigned.
func (v *Verse) Key(k Kind) int {
	switch k {
	case Chapter:
		return v.ChapterID
	case Part:
		return v.PartID
	case Group:
		return v.GroupID
	case Quarter:
		return v.QuarterID
	case Page:
		return v.PageID
	}
	return 0
}

func (v *Verse) setKey(k Kind, id int) {
	switch k {
	case Part:
		v.PartID = id
	case Group:
		v.GroupID = id
	case Quarter:
		v.QuarterID = id
	case Page:
		v.PageID = id
	default:
		panic(fmt.Sprintf("partition: cannot assign %s membership", k))
	}
}

// Range is an inclusive range of global verse ids.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of verses in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether id lies inside the range.
func (r Range) Contains(id int) bool {
	return id >= r.Start && id <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}
