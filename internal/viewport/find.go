package viewport

import "sort"

// FindTopView returns the index of the first item whose bottom edge is below
// viewportTop, or len(bottoms) when every item ends above it. bottoms must be
// non-decreasing.
func FindTopView(bottoms []int, viewportTop int) int {
	return sort.Search(len(bottoms), func(i int) bool {
		return bottoms[i] > viewportTop
	})
}

// findTopView is FindTopView over items that may fail to measure. An
// unmeasurable probe is replaced by the next measurable item in the search
// range; the result is never past the first item that qualifies, so a caller
// walking forward from it sees every candidate.
func findTopView(n, viewportTop int, bottom func(i int) (int, bool)) int {
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		j := mid
		b, ok := bottom(j)
		for !ok && j+1 < hi {
			j++
			b, ok = bottom(j)
		}
		if !ok || b > viewportTop {
			hi = mid
		} else {
			lo = j + 1
		}
	}
	return lo
}
