package library

import "sort"

// Dated is anything with creation and optional update times in ms.
type Dated interface {
	CreatedAtMillis() int64
	UpdatedAtMillis() int64
}

// Recency is the update time, falling back to the creation time.
func Recency(d Dated) int64 {
	if u := d.UpdatedAtMillis(); u > 0 {
		return u
	}
	return d.CreatedAtMillis()
}

// SortByRecency orders newest first. The sort is stable.
func SortByRecency[T Dated](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return Recency(items[i]) > Recency(items[j])
	})
}
