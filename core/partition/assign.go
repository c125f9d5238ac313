package partition

import (
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
)

// Assign sets the kind's partition id on every verse: verses inside
// ranges[i] receive id i+1. Earlier membership for kind is discarded.
//
// Every verse must be written exactly once; anything else is reported as an
// IntegrityError after the writes.
func Assign(verses []Verse, kind Kind, ranges []Range) error {
	if SpecFor(kind).Source == SourceIntrinsic {
		return mushaferrors.NewConfiguration(kind.Table(), "%s membership is carried by the verse rows", kind)
	}
	for i := range verses {
		if verses[i].ID != i+1 {
			return mushaferrors.NewIntegrity("ordering", "verse at position %d has id %d", i+1, verses[i].ID)
		}
		verses[i].setKey(kind, 0)
	}

	writes := make([]int, len(verses))
	for i, rg := range ranges {
		if rg.Start < 1 || rg.End > len(verses) {
			return mushaferrors.NewIntegrity("coverage", "%s %d range %s outside [1, %d]", kind, i+1, rg, len(verses))
		}
		for id := rg.Start; id <= rg.End; id++ {
			verses[id-1].setKey(kind, i+1)
			writes[id-1]++
		}
	}

	for i, n := range writes {
		if n != 1 {
			return mushaferrors.NewIntegrity("coverage", "verse %d assigned to %d %s partitions", i+1, n, kind)
		}
	}
	return nil
}
