package partition

import (
	"fmt"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/ref"
)

// Boundaries holds authored marker lists keyed by Spec.MarkerKey
// ("parts", "quarters", "pages").
type Boundaries map[string][]ref.Ref

// Layout is the complete result of one normalization computation.
type Layout struct {
	Last        int
	Sizes       map[Kind]int
	Ranges      map[Kind][]Range
	VerseCounts map[Kind]Counts
	PageCounts  map[Kind]Counts
	Parents     map[Kind]map[int]Parents
}

// Compute runs the engine over verses: ranges are extracted for marker kinds,
// groups are derived from quarters, membership is assigned on verses (which
// are modified in place), then verse counts, parent links and page counts
// are derived from that membership.
func Compute(verses []Verse, b Boundaries, chapters int) (*Layout, error) {
	res, err := NewResolver(verses)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Last:        res.Last(),
		Sizes:       map[Kind]int{Chapter: chapters},
		Ranges:      make(map[Kind][]Range),
		VerseCounts: make(map[Kind]Counts),
		PageCounts:  make(map[Kind]Counts),
		Parents:     make(map[Kind]map[int]Parents),
	}

	for i := range verses {
		if c := verses[i].ChapterID; c < 1 || c > chapters {
			return nil, mushaferrors.NewConfiguration("chapters",
				"verse %s references chapter %d, metadata has %d chapters", verses[i].Ref(), c, chapters)
		}
	}

	for _, spec := range Specs {
		if spec.Source != SourceMarkers {
			continue
		}
		markers, ok := b[spec.MarkerKey]
		if !ok {
			return nil, mushaferrors.NewConfiguration(spec.MarkerKey, "boundary markers missing")
		}
		ranges, err := ExtractRanges(res, markers)
		if err != nil {
			return nil, mushaferrors.Wrap(err, spec.MarkerKey)
		}
		if err := ValidateRanges(ranges, l.Last); err != nil {
			return nil, mushaferrors.Wrap(err, spec.MarkerKey)
		}
		l.Ranges[spec.Kind] = ranges
	}

	for _, spec := range Specs {
		if spec.Source != SourceQuarters {
			continue
		}
		ranges, err := DeriveGroups(l.Ranges[Quarter], l.Last)
		if err != nil {
			return nil, mushaferrors.Wrap(err, spec.Kind.Table())
		}
		if err := ValidateRanges(ranges, l.Last); err != nil {
			return nil, mushaferrors.Wrap(err, spec.Kind.Table())
		}
		l.Ranges[spec.Kind] = ranges
	}

	for _, k := range Kinds {
		ranges, ok := l.Ranges[k]
		if !ok {
			continue
		}
		if err := Assign(verses, k, ranges); err != nil {
			return nil, fmt.Errorf("%s: %w", k.Table(), err)
		}
		l.Sizes[k] = len(ranges)
	}

	for _, k := range Kinds {
		l.VerseCounts[k] = VerseCounts(verses, k, l.Sizes[k])
	}

	for _, spec := range Specs {
		if len(spec.Parents) == 0 {
			continue
		}
		links, err := LinkParents(verses, spec.Kind)
		if err != nil {
			return nil, mushaferrors.Wrap(err, spec.Kind.Table())
		}
		l.Parents[spec.Kind] = links
	}

	for _, spec := range Specs {
		if spec.PageCount {
			l.PageCounts[spec.Kind] = PageCounts(verses, spec.Kind, l.Sizes[spec.Kind])
		}
	}
	return l, nil
}
