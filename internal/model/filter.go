package model

// SortOrder selects the ordering of search results
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortRating    SortOrder = "rating"
)

// Valid reports whether s is a known sort order
func (s SortOrder) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

// OrDefault returns s, or newest when s is unset or unknown
func (s SortOrder) OrDefault() SortOrder {
	if s.Valid() {
		return s
	}
	return SortNewest
}

// FilterSet is the normalized set of search constraints shared by the
// list API, the map API and the chat assistant. Nil fields are absent.
type FilterSet struct {
	Keyword       *string        `json:"keyword,omitempty"`
	District      *string        `json:"district,omitempty"`
	Municipality  *string        `json:"municipality,omitempty"`
	WardNumber    *string        `json:"ward_number,omitempty"`
	PropertyType  *PropertyType  `json:"property_type,omitempty"`
	MinPrice      *float64       `json:"min_price,omitempty"`
	MaxPrice      *float64       `json:"max_price,omitempty"`
	NumRooms      *int           `json:"num_rooms,omitempty"`
	RentalPurpose *RentalPurpose `json:"rental_purpose,omitempty"`
	Amenities     []string       `json:"amenities,omitempty"`
	Sort          SortOrder      `json:"sort,omitempty"`
}

// IsEmpty reports whether no predicate field is set. Sort is not a predicate.
func (f *FilterSet) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.Keyword == nil && f.District == nil && f.Municipality == nil &&
		f.WardNumber == nil && f.PropertyType == nil && f.MinPrice == nil &&
		f.MaxPrice == nil && f.NumRooms == nil && f.RentalPurpose == nil &&
		len(f.Amenities) == 0
}

// BoundingBox is a rectangular lat/lng region, inclusive on every edge
type BoundingBox struct {
	NorthEastLat float64 `json:"ne_lat"`
	NorthEastLng float64 `json:"ne_lng"`
	SouthWestLat float64 `json:"sw_lat"`
	SouthWestLng float64 `json:"sw_lng"`
}

// Contains reports whether the point lies inside the box
func (b *BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.SouthWestLat && lat <= b.NorthEastLat &&
		lng >= b.SouthWestLng && lng <= b.NorthEastLng
}

// MapFilters are the extra predicates available on the map surface
type MapFilters struct {
	Bounds        *BoundingBox `json:"bounds,omitempty"`
	MinRating     *float64     `json:"min_rating,omitempty"`
	RequireCoords bool         `json:"has_coords"`
}

// Spatial reports whether any predicate needs listing coordinates
func (m *MapFilters) Spatial() bool {
	return m != nil && (m.Bounds != nil || m.RequireCoords)
}
