package partition

import (
	"fmt"

	"github.com/FocuswithJustin/mushaf/core/ref"
)

// referenceChapterVerses holds the verse count of each of the 114 chapters
// of the reference corpus (6236 verses in total).
var referenceChapterVerses = []int{
	7, 286, 200, 176, 120, 165, 206, 75, 129, 109, 123, 111, 43, 52, 99, 128, 111, 110, 98, 135,
	112, 78, 118, 64, 77, 227, 93, 88, 69, 60, 34, 30, 73, 54, 45, 83, 182, 88, 75, 85,
	54, 53, 89, 59, 37, 35, 38, 29, 18, 45, 60, 49, 62, 55, 78, 96, 29, 22, 24, 13,
	14, 11, 11, 18, 12, 12, 30, 52, 52, 44, 28, 28, 20, 56, 40, 31, 50, 40, 46, 42,
	29, 19, 36, 25, 22, 17, 19, 26, 30, 20, 15, 21, 11, 8, 8, 19, 5, 8, 8, 11,
	11, 8, 3, 9, 5, 4, 7, 3, 6, 3, 5, 4, 5, 6,
}

// referenceParts are the first verses of the 30 parts.
var referenceParts = []string{
	"1:1", "2:142", "2:253", "3:93", "4:24", "4:148", "5:82", "6:111", "7:88", "8:41",
	"9:93", "11:6", "12:53", "15:1", "17:1", "18:75", "21:1", "23:1", "25:21", "27:56",
	"29:46", "33:31", "36:28", "39:32", "41:47", "46:1", "51:31", "58:1", "67:1", "78:1",
}

const referenceVerseCount = 6236

// buildVerses creates a corpus with the given per-chapter verse counts.
func buildVerses(chapterVerses []int) []Verse {
	var verses []Verse
	for c, n := range chapterVerses {
		for v := 1; v <= n; v++ {
			verses = append(verses, Verse{
				ID:        len(verses) + 1,
				ChapterID: c + 1,
				Number:    v,
				Content:   fmt.Sprintf("verse %d:%d", c+1, v),
			})
		}
	}
	return verses
}

func referenceVerses() []Verse {
	return buildVerses(referenceChapterVerses)
}

func parseRefs(refs ...string) []ref.Ref {
	out := make([]ref.Ref, len(refs))
	for i, s := range refs {
		out[i] = ref.MustParse(s)
	}
	return out
}

// subdivide splits every range into n(i) pieces of near-equal size and
// returns the first verse of each piece as a marker.
func subdivide(verses []Verse, ranges []Range, n func(i int) int) []ref.Ref {
	var markers []ref.Ref
	for i, rg := range ranges {
		pieces := n(i)
		for k := 0; k < pieces; k++ {
			id := rg.Start + k*rg.Len()/pieces
			markers = append(markers, verses[id-1].Ref())
		}
	}
	return markers
}

// referenceBoundaries returns the real part markers together with 240
// quarters (8 per part) and 605 pages (21 per part for the first five parts,
// 20 for the rest), all aligned to part boundaries.
func referenceBoundaries(t interface{ Fatalf(string, ...any) }, verses []Verse) Boundaries {
	res, err := NewResolver(verses)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	parts := parseRefs(referenceParts...)
	partRanges, err := ExtractRanges(res, parts)
	if err != nil {
		t.Fatalf("ExtractRanges(parts): %v", err)
	}
	return Boundaries{
		"parts":    parts,
		"quarters": subdivide(verses, partRanges, func(int) int { return 8 }),
		"pages": subdivide(verses, partRanges, func(i int) int {
			if i < 5 {
				return 21
			}
			return 20
		}),
	}
}
