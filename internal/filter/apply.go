package filter

import "rentsearch/internal/model"

// Query is a storage-agnostic search: predicates combined with AND, an
// ordering and an optional window. Limit <= 0 means no limit.
type Query struct {
	Predicates []Predicate
	Sort       model.SortOrder
	Limit      int
	Offset     int
}

// NewQuery builds the query for a normalized filter set
func NewQuery(fs *model.FilterSet, extras *model.MapFilters) *Query {
	q := &Query{Predicates: Build(fs, extras)}
	if fs != nil {
		q.Sort = fs.Sort
	}
	q.Sort = q.Sort.OrDefault()
	return q
}

// Filter returns the listings of collection matching every predicate, in
// collection order. The collection is not modified.
func Filter(collection []model.Listing, preds []Predicate) []model.Listing {
	out := make([]model.Listing, 0, len(collection))
	for i := range collection {
		if MatchAll(preds, &collection[i]) {
			out = append(out, collection[i])
		}
	}
	return out
}

// Apply filters and orders an in-memory collection. The collection is
// assumed to be the searchable base set already.
func Apply(collection []model.Listing, fs *model.FilterSet, extras *model.MapFilters) []model.Listing {
	q := NewQuery(fs, extras)
	out := Filter(collection, q.Predicates)
	Sort(out, q.Sort)
	return out
}

// Run executes q against an in-memory collection and returns the window
// plus the total number of matches.
func Run(collection []model.Listing, q *Query) ([]model.Listing, int) {
	matched := Filter(collection, q.Predicates)
	Sort(matched, q.Sort)
	return Window(matched, q.Offset, q.Limit), len(matched)
}

// Window slices items to [offset, offset+limit)
func Window(items []model.Listing, offset, limit int) []model.Listing {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []model.Listing{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
