// Package filter turns raw search parameters into a validated FilterSet and
// the FilterSet into an ordered list of predicates. The same predicate list
// is evaluated in memory (Match) and rendered to SQL by the repository, so
// every search surface shares one implementation of the filter semantics.
package filter

import (
	"strings"

	"rentsearch/internal/model"
)

// Field names a listing attribute a predicate can constrain
type Field string

const (
	FieldID            Field = "id"
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldDistrict      Field = "district"
	FieldMunicipality  Field = "municipality"
	FieldWardNumber    Field = "ward_number"
	FieldPropertyType  Field = "property_type"
	FieldRentalPurpose Field = "rental_purpose"
	FieldPrice         Field = "price"
	FieldNumRooms      Field = "num_rooms"
	FieldRating        Field = "average_rating"
	FieldAmenities     Field = "amenities"
	FieldLocation      Field = "location"
	FieldCreatedAt     Field = "created_at"
)

// Op is the comparison a predicate performs
type Op string

const (
	// OpContains is a case-insensitive substring match, OR-ed across Fields
	OpContains Op = "contains"
	OpEquals   Op = "equals"
	OpAtLeast  Op = "at_least"
	OpAtMost   Op = "at_most"
	// OpHasAmenity matches when any amenity name contains Text
	OpHasAmenity Op = "has_amenity"
	OpHasCoords  Op = "has_coords"
	OpWithin     Op = "within"
	OpNotIn      Op = "not_in"
)

// Predicate is a single field-level constraint. Which value member is
// meaningful depends on Op.
type Predicate struct {
	Op     Op
	Fields []Field
	Text   string
	Number float64
	Bounds *model.BoundingBox
	IDs    []int64
}

// Field returns the primary field of the predicate
func (p Predicate) Field() Field {
	if len(p.Fields) == 0 {
		return ""
	}
	return p.Fields[0]
}

// Contains builds a case-insensitive substring predicate over one or more fields
func Contains(text string, fields ...Field) Predicate {
	return Predicate{Op: OpContains, Fields: fields, Text: text}
}

// Equals builds an exact string match predicate
func Equals(field Field, text string) Predicate {
	return Predicate{Op: OpEquals, Fields: []Field{field}, Text: text}
}

// AtLeast builds an inclusive lower bound predicate
func AtLeast(field Field, n float64) Predicate {
	return Predicate{Op: OpAtLeast, Fields: []Field{field}, Number: n}
}

// AtMost builds an inclusive upper bound predicate
func AtMost(field Field, n float64) Predicate {
	return Predicate{Op: OpAtMost, Fields: []Field{field}, Number: n}
}

// HasAmenity builds a predicate requiring one amenity
func HasAmenity(name string) Predicate {
	return Predicate{Op: OpHasAmenity, Fields: []Field{FieldAmenities}, Text: name}
}

// HasCoords builds a predicate requiring both coordinates
func HasCoords() Predicate {
	return Predicate{Op: OpHasCoords, Fields: []Field{FieldLocation}}
}

// Within builds a bounding box predicate
func Within(b model.BoundingBox) Predicate {
	return Predicate{Op: OpWithin, Fields: []Field{FieldLocation}, Bounds: &b}
}

// ExcludeIDs builds a predicate rejecting the given listing ids
func ExcludeIDs(ids []int64) Predicate {
	return Predicate{Op: OpNotIn, Fields: []Field{FieldID}, IDs: ids}
}

// Build composes the predicate list for a normalized filter set plus the
// optional map predicates. Only present fields produce predicates; the
// result is combined with AND.
func Build(fs *model.FilterSet, extras *model.MapFilters) []Predicate {
	var preds []Predicate

	if fs != nil {
		if fs.Keyword != nil {
			preds = append(preds, Contains(*fs.Keyword, FieldTitle, FieldDescription))
		}
		if fs.District != nil {
			preds = append(preds, Contains(*fs.District, FieldDistrict))
		}
		if fs.Municipality != nil {
			preds = append(preds, Contains(*fs.Municipality, FieldMunicipality))
		}
		if fs.WardNumber != nil {
			preds = append(preds, Equals(FieldWardNumber, *fs.WardNumber))
		}
		if fs.PropertyType != nil {
			preds = append(preds, Equals(FieldPropertyType, string(*fs.PropertyType)))
		}
		if fs.MinPrice != nil {
			preds = append(preds, AtLeast(FieldPrice, *fs.MinPrice))
		}
		if fs.MaxPrice != nil {
			preds = append(preds, AtMost(FieldPrice, *fs.MaxPrice))
		}
		if fs.NumRooms != nil {
			preds = append(preds, AtLeast(FieldNumRooms, float64(*fs.NumRooms)))
		}
		if fs.RentalPurpose != nil {
			preds = append(preds, Equals(FieldRentalPurpose, string(*fs.RentalPurpose)))
		}
		for _, amenity := range fs.Amenities {
			preds = append(preds, HasAmenity(amenity))
		}
	}

	if extras != nil {
		if extras.Spatial() {
			preds = append(preds, HasCoords())
		}
		if extras.Bounds != nil {
			preds = append(preds, Within(*extras.Bounds))
		}
		if extras.MinRating != nil {
			preds = append(preds, AtLeast(FieldRating, *extras.MinRating))
		}
	}

	return preds
}

// Match reports whether the listing satisfies the predicate. Unknown
// operators never match.
func (p Predicate) Match(l *model.Listing) bool {
	switch p.Op {
	case OpContains:
		for _, f := range p.Fields {
			if containsFold(textOf(l, f), p.Text) {
				return true
			}
		}
		return false
	case OpEquals:
		return textOf(l, p.Field()) == p.Text
	case OpAtLeast:
		return numberOf(l, p.Field()) >= p.Number
	case OpAtMost:
		return numberOf(l, p.Field()) <= p.Number
	case OpHasAmenity:
		for _, name := range l.Amenities {
			if containsFold(name, p.Text) {
				return true
			}
		}
		return false
	case OpHasCoords:
		return l.HasLocation()
	case OpWithin:
		return l.HasLocation() && p.Bounds != nil && p.Bounds.Contains(*l.Latitude, *l.Longitude)
	case OpNotIn:
		for _, id := range p.IDs {
			if id == l.ID {
				return false
			}
		}
		return true
	}
	return false
}

// MatchAll reports whether the listing satisfies every predicate
func MatchAll(preds []Predicate, l *model.Listing) bool {
	for _, p := range preds {
		if !p.Match(l) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func textOf(l *model.Listing, f Field) string {
	switch f {
	case FieldTitle:
		return l.Title
	case FieldDescription:
		return l.Description
	case FieldDistrict:
		return l.District
	case FieldMunicipality:
		return l.Municipality
	case FieldWardNumber:
		return l.WardNumber
	case FieldPropertyType:
		return string(l.PropertyType)
	case FieldRentalPurpose:
		return string(l.RentalPurpose)
	}
	return ""
}

func numberOf(l *model.Listing, f Field) float64 {
	switch f {
	case FieldPrice:
		return l.Price
	case FieldNumRooms:
		return float64(l.NumRooms)
	case FieldRating:
		return l.AverageRating
	case FieldID:
		return float64(l.ID)
	}
	return 0
}
