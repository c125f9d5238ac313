package partition

import (
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/ref"
)

// Resolver maps chapter/verse references to global verse ids.
type Resolver struct {
	ids  map[ref.Ref]int
	last int
}

// NewResolver indexes verses. Verses must be ordered, with ID equal to the
// 1-based position and (chapter, number) strictly increasing.
func NewResolver(verses []Verse) (*Resolver, error) {
	if len(verses) == 0 {
		return nil, mushaferrors.NewConfiguration("verses", "corpus is empty")
	}

	r := &Resolver{
		ids:  make(map[ref.Ref]int, len(verses)),
		last: len(verses),
	}
	for i := range verses {
		v := &verses[i]
		if v.ID != i+1 {
			return nil, mushaferrors.NewIntegrity("ordering", "verse at position %d has id %d", i+1, v.ID)
		}
		if i > 0 && !verses[i-1].Ref().Less(v.Ref()) {
			return nil, mushaferrors.NewIntegrity("ordering", "verse %s (id %d) does not follow %s", v.Ref(), v.ID, verses[i-1].Ref())
		}
		r.ids[v.Ref()] = v.ID
	}
	return r, nil
}

// Resolve returns the global id of a chapter/verse pair.
func (r *Resolver) Resolve(chapter, verse int) (int, error) {
	return r.ResolveRef(ref.Ref{Chapter: chapter, Verse: verse})
}

// ResolveRef returns the global id of a reference, or a NotFoundError.
func (r *Resolver) ResolveRef(rf ref.Ref) (int, error) {
	id, ok := r.ids[rf]
	if !ok {
		return 0, mushaferrors.NewNotFound("verse", rf.String())
	}
	return id, nil
}

// Last returns N, the last global verse id.
func (r *Resolver) Last() int {
	return r.last
}
