package partition

// Counts maps a partition id to a derived count.
type Counts map[int]int

// Sum returns the total over all partitions.
func (c Counts) Sum() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// VerseCounts counts member verses for partitions 1..partitions of kind.
// Partitions without members report 0.
func VerseCounts(verses []Verse, kind Kind, partitions int) Counts {
	counts := make(Counts, partitions)
	for id := 1; id <= partitions; id++ {
		counts[id] = 0
	}
	for i := range verses {
		if id := verses[i].Key(kind); id > 0 {
			counts[id]++
		}
	}
	return counts
}

// PageCounts counts the distinct pages spanned by each partition
// 1..partitions of kind. A partition spanning no page reports 1, so every
// partition occupies at least one page.
func PageCounts(verses []Verse, kind Kind, partitions int) Counts {
	pages := make(map[int]map[int]struct{}, partitions)
	for i := range verses {
		v := &verses[i]
		id := v.Key(kind)
		if id == 0 || v.PageID == 0 {
			continue
		}
		set, ok := pages[id]
		if !ok {
			set = make(map[int]struct{})
			pages[id] = set
		}
		set[v.PageID] = struct{}{}
	}

	counts := make(Counts, partitions)
	for id := 1; id <= partitions; id++ {
		n := len(pages[id])
		if n == 0 {
			n = 1
		}
		counts[id] = n
	}
	return counts
}
