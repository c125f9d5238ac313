package partition

import (
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/ref"
)

// ExtractRanges converts an ordered marker list into one range per marker.
// Range i runs from marker i up to the verse before marker i+1; the final
// range runs to the last verse of the corpus. The first marker must name
// the first verse.
func ExtractRanges(r *Resolver, markers []ref.Ref) ([]Range, error) {
	if len(markers) == 0 {
		return nil, mushaferrors.NewConfiguration("markers", "marker list is empty")
	}

	starts := make([]int, len(markers))
	for i, m := range markers {
		id, err := r.ResolveRef(m)
		if err != nil {
			return nil, mushaferrors.Wrapf(err, "marker %d", i+1)
		}
		starts[i] = id
	}
	if starts[0] != 1 {
		return nil, mushaferrors.NewConfiguration("markers",
			"first marker %s is verse %d, the corpus starts at verse 1", markers[0], starts[0])
	}

	ranges := make([]Range, len(markers))
	for i, start := range starts {
		end := r.last
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		if end < start {
			return nil, mushaferrors.NewConfiguration("markers",
				"marker %d (%s) does not precede marker %d (%s)", i+1, markers[i], i+2, markers[i+1])
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges, nil
}

// DeriveGroups composes quarter ranges into group ranges of GroupSize
// quarters each. The final group ends at last, absorbing any trailing
// quarters that do not fill a whole group.
func DeriveGroups(quarters []Range, last int) ([]Range, error) {
	if len(quarters) < GroupSize {
		return nil, mushaferrors.NewConfiguration("quarters",
			"need at least %d quarters to derive a group, got %d", GroupSize, len(quarters))
	}

	n := len(quarters) / GroupSize
	groups := make([]Range, n)
	for g := 0; g < n; g++ {
		first := g * GroupSize
		end := quarters[first+GroupSize-1].End
		if g == n-1 {
			end = last
		}
		groups[g] = Range{Start: quarters[first].Start, End: end}
	}
	return groups, nil
}

// ValidateRanges checks that ranges are ordered, contiguous and cover
// exactly [1, last].
func ValidateRanges(ranges []Range, last int) error {
	if len(ranges) == 0 {
		return mushaferrors.NewIntegrity("coverage", "no ranges")
	}
	if ranges[0].Start != 1 {
		return mushaferrors.NewIntegrity("coverage", "first range starts at %d, not 1", ranges[0].Start)
	}
	for i, rg := range ranges {
		if rg.End < rg.Start {
			return mushaferrors.NewIntegrity("coverage", "range %d %s is empty", i+1, rg)
		}
		if i > 0 && ranges[i-1].End+1 != rg.Start {
			return mushaferrors.NewIntegrity("coverage", "range %d %s does not follow range %d %s", i+1, rg, i, ranges[i-1])
		}
	}
	if end := ranges[len(ranges)-1].End; end != last {
		return mushaferrors.NewIntegrity("coverage", "last range ends at %d, not %d", end, last)
	}
	return nil
}
