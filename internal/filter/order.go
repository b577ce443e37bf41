package filter

import (
	"sort"

	"rentsearch/internal/model"
)

// SortKey is one column of an ordering
type SortKey struct {
	Field      Field
	Descending bool
}

// OrderKeys returns the full ordering for a sort order. Every ordering ends
// with created_at DESC, id DESC so the order is total and pages are stable.
func OrderKeys(order model.SortOrder) []SortKey {
	tail := []SortKey{{Field: FieldCreatedAt, Descending: true}, {Field: FieldID, Descending: true}}
	switch order.OrDefault() {
	case model.SortPriceAsc:
		return append([]SortKey{{Field: FieldPrice}}, tail...)
	case model.SortPriceDesc:
		return append([]SortKey{{Field: FieldPrice, Descending: true}}, tail...)
	case model.SortRating:
		return append([]SortKey{{Field: FieldRating, Descending: true}}, tail...)
	}
	return tail
}

// Less returns the comparison for order: a sorts before b
func Less(order model.SortOrder) func(a, b *model.Listing) bool {
	keys := OrderKeys(order)
	return func(a, b *model.Listing) bool {
		for _, k := range keys {
			c := compare(a, b, k.Field)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	}
}

// Sort orders listings in place
func Sort(listings []model.Listing, order model.SortOrder) {
	less := Less(order)
	sort.SliceStable(listings, func(i, j int) bool {
		return less(&listings[i], &listings[j])
	})
}

func compare(a, b *model.Listing, f Field) int {
	if f == FieldCreatedAt {
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	}
	x, y := numberOf(a, f), numberOf(b, f)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
