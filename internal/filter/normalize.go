package filter

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"rentsearch/internal/model"
)

// Sort parameter values mapped to the four supported orders. The map view's
// legacy descending keys are accepted; its ascending created_at and
// average_rating keys have no matching order and fall back to newest.
var sortAliases = map[string]model.SortOrder{
	"newest":          model.SortNewest,
	"-created_at":     model.SortNewest,
	"price_asc":       model.SortPriceAsc,
	"price":           model.SortPriceAsc,
	"price_desc":      model.SortPriceDesc,
	"-price":          model.SortPriceDesc,
	"rating":          model.SortRating,
	"-average_rating": model.SortRating,
}

// Normalize returns a validated copy of fs. Text is trimmed and blank
// values dropped, enums must be members of their domain, prices must be
// finite and room counts positive, amenities are de-duplicated
// case-insensitively. Nothing here ever fails: bad values become absent.
// Zero and negative prices are kept as given.
func Normalize(fs *model.FilterSet) *model.FilterSet {
	out := &model.FilterSet{}
	if fs == nil {
		return out
	}

	out.Keyword = cleanText(fs.Keyword)
	out.District = cleanText(fs.District)
	out.Municipality = cleanText(fs.Municipality)
	out.WardNumber = cleanText(fs.WardNumber)

	if fs.PropertyType != nil {
		out.PropertyType = ParsePropertyType(string(*fs.PropertyType))
	}
	if fs.RentalPurpose != nil {
		out.RentalPurpose = ParseRentalPurpose(string(*fs.RentalPurpose))
	}

	out.MinPrice = finite(fs.MinPrice)
	out.MaxPrice = finite(fs.MaxPrice)
	if fs.NumRooms != nil && *fs.NumRooms > 0 {
		n := *fs.NumRooms
		out.NumRooms = &n
	}

	out.Amenities = cleanList(fs.Amenities)
	out.Sort = ParseSort(string(fs.Sort))

	return out
}

// FromQuery parses list API query parameters into a normalized filter set
func FromQuery(values url.Values) *model.FilterSet {
	fs := &model.FilterSet{
		Keyword:      textParam(values, "keyword"),
		District:     textParam(values, "district"),
		Municipality: textParam(values, "municipality"),
		WardNumber:   textParam(values, "ward_number"),
		MinPrice:     ParseNumber(values.Get("min_price")),
		MaxPrice:     ParseNumber(values.Get("max_price")),
		NumRooms:     ParseCount(values.Get("num_rooms")),
		Sort:         ParseSort(values.Get("sort")),
	}
	if v := values.Get("property_type"); v != "" {
		fs.PropertyType = ParsePropertyType(v)
	}
	if v := values.Get("rental_purpose"); v != "" {
		fs.RentalPurpose = ParseRentalPurpose(v)
	}
	for _, raw := range values["amenities"] {
		fs.Amenities = append(fs.Amenities, strings.Split(raw, ",")...)
	}
	return Normalize(fs)
}

// FromMapQuery parses map API query parameters. The bounding box is used
// only when all four corners parse as valid coordinates; has_coords
// defaults to true.
func FromMapQuery(values url.Values) (*model.FilterSet, *model.MapFilters) {
	fs := FromQuery(values)

	extras := &model.MapFilters{RequireCoords: true}
	if v := strings.TrimSpace(values.Get("has_coords")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			extras.RequireCoords = b
		}
	}
	if r := ParseNumber(values.Get("min_rating")); r != nil && *r <= 5 {
		extras.MinRating = r
	}
	extras.Bounds = ParseBounds(
		values.Get("ne_lat"), values.Get("ne_lng"),
		values.Get("sw_lat"), values.Get("sw_lng"),
	)
	return fs, extras
}

// FromMap converts loosely typed JSON (as produced by a language model)
// into a normalized filter set. Numbers may arrive as JSON numbers or
// numeric strings; anything else is dropped.
func FromMap(raw map[string]any) *model.FilterSet {
	if raw == nil {
		return &model.FilterSet{}
	}
	fs := &model.FilterSet{
		Keyword:      anyText(raw["keyword"]),
		District:     anyText(raw["district"]),
		Municipality: anyText(raw["municipality"]),
		WardNumber:   anyText(raw["ward_number"]),
		MinPrice:     anyNumber(raw["min_price"]),
		MaxPrice:     anyNumber(raw["max_price"]),
	}
	if n := anyNumber(raw["num_rooms"]); n != nil {
		rooms := int(*n)
		fs.NumRooms = &rooms
	}
	if s := anyText(raw["property_type"]); s != nil {
		fs.PropertyType = ParsePropertyType(*s)
	}
	if s := anyText(raw["rental_purpose"]); s != nil {
		fs.RentalPurpose = ParseRentalPurpose(*s)
	}
	if s := anyText(raw["sort"]); s != nil {
		fs.Sort = ParseSort(*s)
	}
	if list, ok := raw["amenities"].([]any); ok {
		for _, item := range list {
			if s := anyText(item); s != nil {
				fs.Amenities = append(fs.Amenities, *s)
			}
		}
	}
	return Normalize(fs)
}

// ParsePropertyType returns the property type named by s, or nil
func ParsePropertyType(s string) *model.PropertyType {
	t := model.PropertyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return nil
	}
	return &t
}

// ParseRentalPurpose returns the rental purpose named by s, or nil
func ParseRentalPurpose(s string) *model.RentalPurpose {
	p := model.RentalPurpose(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return nil
	}
	return &p
}

// ParseSort maps a sort parameter to a SortOrder; unknown values yield ""
func ParseSort(s string) model.SortOrder {
	return sortAliases[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses a finite number, ignoring thousands separators
func ParseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(&v)
}

// ParseCount parses a positive integer
func ParseCount(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// ParseBounds parses the four corners of a bounding box. A missing or
// malformed corner drops the whole box.
func ParseBounds(neLat, neLng, swLat, swLng string) *model.BoundingBox {
	corners := make([]float64, 4)
	for i, raw := range []string{neLat, neLng, swLat, swLng} {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		corners[i] = v
	}
	if math.Abs(corners[0]) > 90 || math.Abs(corners[2]) > 90 ||
		math.Abs(corners[1]) > 180 || math.Abs(corners[3]) > 180 {
		return nil
	}
	return &model.BoundingBox{
		NorthEastLat: corners[0],
		NorthEastLng: corners[1],
		SouthWestLat: corners[2],
		SouthWestLng: corners[3],
	}
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	n := *v
	return &n
}

func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func cleanList(items []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func textParam(values url.Values, key string) *string {
	v := values.Get(key)
	return cleanText(&v)
}

func anyText(v any) *string {
	switch t := v.(type) {
	case string:
		return cleanText(&t)
	case float64:
		if t == math.Trunc(t) {
			s := strconv.FormatInt(int64(t), 10)
			return &s
		}
	case json.Number:
		s := t.String()
		return &s
	}
	return nil
}

func anyNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return finite(&t)
	case int:
		f := float64(t)
		return finite(&f)
	case json.Number:
		return ParseNumber(t.String())
	case string:
		return ParseNumber(t)
	}
	return nil
}
