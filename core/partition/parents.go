package partition

import (
	"sort"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
)

// Parents maps a parent kind to the parent partition id.
type Parents map[Kind]int

// LinkParents derives the parent ids of every partition of kind from the
// partition's first verse (lowest id). Strict links are checked against
// every other member verse.
func LinkParents(verses []Verse, kind Kind) (map[int]Parents, error) {
	spec := SpecFor(kind)
	if len(spec.Parents) == 0 {
		return map[int]Parents{}, nil
	}

	order := make([]int, len(verses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return verses[order[a]].ID < verses[order[b]].ID
	})

	links := make(map[int]Parents)
	firsts := make(map[int]int)
	for _, idx := range order {
		v := &verses[idx]
		child := v.Key(kind)
		if child == 0 {
			return nil, mushaferrors.NewIntegrity("parents", "verse %d has no %s", v.ID, kind)
		}

		parents, seen := links[child]
		if !seen {
			parents = make(Parents, len(spec.Parents))
			for _, link := range spec.Parents {
				parents[link.Kind] = v.Key(link.Kind)
			}
			links[child] = parents
			firsts[child] = v.ID
			continue
		}

		for _, link := range spec.Parents {
			if !link.Strict {
				continue
			}
			if got := v.Key(link.Kind); got != parents[link.Kind] {
				return nil, mushaferrors.NewIntegrity("parents",
					"%s %d spans %s %d (verse %d) and %s %d (verse %d)",
					kind, child, link.Kind, parents[link.Kind], firsts[child], link.Kind, got, v.ID)
			}
		}
	}
	return links, nil
}
