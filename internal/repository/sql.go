package repository

import (
	"fmt"
	"strings"

	"rentsearch/internal/filter"

	"github.com/lib/pq"
)

// baseScope restricts every query to the searchable collection
const baseScope = "p.is_approved = true AND p.status = 'available'"

const listingColumns = `
	p.id, p.title, p.description, p.property_type, p.district, p.municipality,
	p.ward_number, p.address, p.price, p.num_rooms, p.rental_purpose,
	p.latitude, p.longitude, p.status, p.is_approved, p.views_count,
	p.average_rating, p.review_count, p.contact_phone, p.contact_email,
	p.created_at, p.updated_at,
	COALESCE((
		SELECT json_agg(a.name ORDER BY a.name)
		FROM property_amenities pa JOIN amenities a ON a.id = pa.amenity_id
		WHERE pa.property_id = p.id
	), '[]') AS amenities`

var columns = map[filter.Field]string{
	filter.FieldID:            "p.id",
	filter.FieldTitle:         "p.title",
	filter.FieldDescription:   "p.description",
	filter.FieldDistrict:      "p.district",
	filter.FieldMunicipality:  "p.municipality",
	filter.FieldWardNumber:    "p.ward_number",
	filter.FieldPropertyType:  "p.property_type",
	filter.FieldRentalPurpose: "p.rental_purpose",
	filter.FieldPrice:         "p.price",
	filter.FieldNumRooms:      "p.num_rooms",
	filter.FieldRating:        "p.average_rating",
	filter.FieldCreatedAt:     "p.created_at",
}

// whereBuilder accumulates SQL conditions and their positional arguments
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *whereBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) String() string {
	return strings.Join(b.clauses, " AND ")
}

// buildWhere renders predicates into a WHERE clause over the properties
// table aliased as p. The base scope is always the first condition.
func buildWhere(preds []filter.Predicate) (*whereBuilder, error) {
	b := &whereBuilder{clauses: []string{baseScope}}

	for _, p := range preds {
		switch p.Op {
		case filter.OpContains:
			ph := b.arg(likePattern(p.Text))
			var ors []string
			for _, f := range p.Fields {
				col, err := column(f)
				if err != nil {
					return nil, err
				}
				ors = append(ors, fmt.Sprintf("%s ILIKE %s", col, ph))
			}
			b.add("(" + strings.Join(ors, " OR ") + ")")
		case filter.OpEquals:
			col, err := column(p.Field())
			if err != nil {
				return nil, err
			}
			b.add(fmt.Sprintf("%s = %s", col, b.arg(p.Text)))
		case filter.OpAtLeast, filter.OpAtMost:
			col, err := column(p.Field())
			if err != nil {
				return nil, err
			}
			cmp := ">="
			if p.Op == filter.OpAtMost {
				cmp = "<="
			}
			b.add(fmt.Sprintf("%s %s %s", col, cmp, b.arg(p.Number)))
		case filter.OpHasAmenity:
			b.add(fmt.Sprintf(`EXISTS (
				SELECT 1 FROM property_amenities pa JOIN amenities a ON a.id = pa.amenity_id
				WHERE pa.property_id = p.id AND a.name ILIKE %s)`, b.arg(likePattern(p.Text))))
		case filter.OpHasCoords:
			b.add("p.latitude IS NOT NULL AND p.longitude IS NOT NULL")
		case filter.OpWithin:
			if p.Bounds == nil {
				return nil, fmt.Errorf("within predicate without bounds")
			}
			b.add(fmt.Sprintf("p.latitude BETWEEN %s AND %s AND p.longitude BETWEEN %s AND %s",
				b.arg(p.Bounds.SouthWestLat), b.arg(p.Bounds.NorthEastLat),
				b.arg(p.Bounds.SouthWestLng), b.arg(p.Bounds.NorthEastLng)))
		case filter.OpNotIn:
			if len(p.IDs) == 0 {
				continue
			}
			b.add(fmt.Sprintf("NOT (p.id = ANY(%s))", b.arg(pq.Array(p.IDs))))
		default:
			return nil, fmt.Errorf("unsupported predicate %q", p.Op)
		}
	}

	return b, nil
}

// orderBy renders the total ordering of a sort order
func orderBy(q *filter.Query) string {
	keys := filter.OrderKeys(q.Sort)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		dir := "ASC"
		if k.Descending {
			dir = "DESC"
		}
		parts = append(parts, columns[k.Field]+" "+dir)
	}
	return strings.Join(parts, ", ")
}

func column(f filter.Field) (string, error) {
	col, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("unsupported field %q", f)
	}
	return col, nil
}

// likePattern wraps text for a substring ILIKE, escaping the wildcards it contains
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}
