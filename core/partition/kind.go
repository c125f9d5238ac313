package partition

import (
	"fmt"
	"strings"
)

// Kind identifies one partitioning of the verse sequence.
type Kind int

// Partition kinds.
const (
	Chapter Kind = iota
	Part
	Group
	Quarter
	Page
)

// Kinds lists every kind in hierarchy order.
var Kinds = []Kind{Chapter, Part, Group, Quarter, Page}

// GroupSize is the number of consecutive quarters composing a group.
const GroupSize = 4

var kindNames = [...]string{"chapter", "part", "group", "quarter", "page"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Table returns the table holding partitions of this kind.
func (k Kind) Table() string {
	return k.String() + "s"
}

// Column returns the verse foreign key column for this kind.
func (k Kind) Column() string {
	return k.String() + "_id"
}

// Title returns the display prefix used for partition names ("Part 3").
func (k Kind) Title() string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseKind maps a kind name ("part") or table name ("parts") to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == k.String() || s == k.Table() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown partition kind %q", s)
}

// Source describes where a kind's ranges come from.
type Source int

const (
	// SourceIntrinsic kinds are carried by each verse row.
	SourceIntrinsic Source = iota
	// SourceMarkers kinds are bounded by authored boundary markers.
	SourceMarkers
	// SourceQuarters kinds are composed from quarter ranges.
	SourceQuarters
)

// ParentLink names a parent kind of a partition.
type ParentLink struct {
	Kind Kind
	// Strict links require all member verses to share the parent value.
	// Non-strict links may straddle a parent boundary, e.g. a page running
	// from the end of one chapter into the next.
	Strict bool
}

// Spec describes how one kind is derived, linked and aggregated.
type Spec struct {
	Kind      Kind
	Source    Source
	MarkerKey string // boundary metadata key for SourceMarkers kinds
	Parents   []ParentLink
	PageCount bool // whether the kind carries a derived page_count
}

// Specs is the data-driven description of every kind.
var Specs = []Spec{
	{Kind: Chapter, Source: SourceIntrinsic, PageCount: true},
	{Kind: Part, Source: SourceMarkers, MarkerKey: "parts", PageCount: true},
	{
		Kind:      Group,
		Source:    SourceQuarters,
		Parents:   []ParentLink{{Kind: Part, Strict: true}},
		PageCount: true,
	},
	{
		Kind:      Quarter,
		Source:    SourceMarkers,
		MarkerKey: "quarters",
		Parents:   []ParentLink{{Kind: Part, Strict: true}, {Kind: Group, Strict: true}},
		PageCount: true,
	},
	{
		Kind:      Page,
		Source:    SourceMarkers,
		MarkerKey: "pages",
		Parents: []ParentLink{
			{Kind: Chapter},
			{Kind: Part, Strict: true},
			{Kind: Group},
			{Kind: Quarter},
		},
	},
}

// SpecFor returns the Spec of a kind.
func SpecFor(k Kind) Spec {
	for _, s := range Specs {
		if s.Kind == k {
			return s
		}
	}
	panic(fmt.Sprintf("partition: no spec for %s", k))
}
