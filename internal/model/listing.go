package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PropertyType is the category of a rental listing
type PropertyType string

const (
	PropertyRoom       PropertyType = "room"
	PropertyFlat       PropertyType = "flat"
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
)

// PropertyTypes lists every valid property type in display order
var PropertyTypes = []PropertyType{
	PropertyRoom, PropertyFlat, PropertyApartment, PropertyHouse, PropertyLand, PropertyCommercial,
}

// Valid reports whether t is a known property type
func (t PropertyType) Valid() bool {
	for _, v := range PropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Label returns the human readable name of the property type
func (t PropertyType) Label() string {
	switch t {
	case PropertyRoom:
		return "Room"
	case PropertyFlat:
		return "Flat"
	case PropertyApartment:
		return "Apartment"
	case PropertyHouse:
		return "House"
	case PropertyLand:
		return "Land"
	case PropertyCommercial:
		return "Commercial Space"
	}
	return string(t)
}

// RentalPurpose is who a listing is rented out to
type RentalPurpose string

const (
	PurposeFamily  RentalPurpose = "family"
	PurposeOffice  RentalPurpose = "office"
	PurposeStudent RentalPurpose = "student"
	PurposeAny     RentalPurpose = "any"
)

// RentalPurposes lists every valid rental purpose
var RentalPurposes = []RentalPurpose{PurposeFamily, PurposeOffice, PurposeStudent, PurposeAny}

// Valid reports whether p is a known rental purpose
func (p RentalPurpose) Valid() bool {
	for _, v := range RentalPurposes {
		if v == p {
			return true
		}
	}
	return false
}

// ListingStatus is the availability of a listing
type ListingStatus string

const (
	StatusAvailable   ListingStatus = "available"
	StatusRented      ListingStatus = "rented"
	StatusUnavailable ListingStatus = "unavailable"
)

// Listing represents a rental property listing
type Listing struct {
	ID            int64         `json:"id" db:"id" yaml:"id"`
	Title         string        `json:"title" db:"title" yaml:"title"`
	Description   string        `json:"description" db:"description" yaml:"description"`
	PropertyType  PropertyType  `json:"property_type" db:"property_type" yaml:"property_type"`
	District      string        `json:"district" db:"district" yaml:"district"`
	Municipality  string        `json:"municipality" db:"municipality" yaml:"municipality"`
	WardNumber    string        `json:"ward_number" db:"ward_number" yaml:"ward_number"`
	Address       string        `json:"address" db:"address" yaml:"address"`
	Price         float64       `json:"price" db:"price" yaml:"price"`
	NumRooms      int           `json:"num_rooms" db:"num_rooms" yaml:"num_rooms"`
	RentalPurpose RentalPurpose `json:"rental_purpose" db:"rental_purpose" yaml:"rental_purpose"`
	Amenities     JSONArray     `json:"amenities" db:"amenities" yaml:"amenities"`
	Latitude      *float64      `json:"latitude" db:"latitude" yaml:"latitude"`
	Longitude     *float64      `json:"longitude" db:"longitude" yaml:"longitude"`
	Status        ListingStatus `json:"status" db:"status" yaml:"status"`
	IsApproved    bool          `json:"is_approved" db:"is_approved" yaml:"is_approved"`
	ViewsCount    int           `json:"views_count" db:"views_count" yaml:"views_count"`
	AverageRating float64       `json:"average_rating" db:"average_rating" yaml:"average_rating"`
	ReviewCount   int           `json:"review_count" db:"review_count" yaml:"review_count"`
	ContactPhone  string        `json:"contact_phone,omitempty" db:"contact_phone" yaml:"contact_phone"`
	ContactEmail  string        `json:"contact_email,omitempty" db:"contact_email" yaml:"contact_email"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at" yaml:"updated_at"`
}

// HasLocation reports whether both coordinates are set
func (l *Listing) HasLocation() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Searchable reports whether the listing belongs to the public search collection
func (l *Listing) Searchable() bool {
	return l.IsApproved && l.Status == StatusAvailable
}

// URL returns the public detail path of the listing
func (l *Listing) URL() string {
	return fmt.Sprintf("/properties/%d/", l.ID)
}

// ListingSummary is the compact card shown in chat and recommendation results
type ListingSummary struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Price        float64  `json:"price"`
	District     string   `json:"district"`
	Municipality string   `json:"municipality"`
	PropertyType string   `json:"property_type"`
	NumRooms     int      `json:"num_rooms"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	URL          string   `json:"url"`
	HasLocation  bool     `json:"has_location"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Summary converts the listing into a chat card
func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:           l.ID,
		Title:        l.Title,
		Price:        l.Price,
		District:     l.District,
		Municipality: l.Municipality,
		PropertyType: l.PropertyType.Label(),
		NumRooms:     l.NumRooms,
		Rating:       l.AverageRating,
		ReviewCount:  l.ReviewCount,
		URL:          l.URL(),
		HasLocation:  l.HasLocation(),
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
	}
}

// MapMarker is a listing as plotted on the map view
type MapMarker struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Price        float64  `json:"price"`
	PropertyType string   `json:"property_type"`
	District     string   `json:"district"`
	Municipality string   `json:"municipality"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Rating       float64  `json:"rating"`
	NumRooms     int      `json:"num_rooms"`
	URL          string   `json:"url"`
}

// Marker converts the listing into a map marker
func (l *Listing) Marker() MapMarker {
	return MapMarker{
		ID:           l.ID,
		Title:        l.Title,
		Price:        l.Price,
		PropertyType: l.PropertyType.Label(),
		District:     l.District,
		Municipality: l.Municipality,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		Rating:       l.AverageRating,
		NumRooms:     l.NumRooms,
		URL:          l.URL(),
	}
}

// Amenity is an entry of the amenity catalogue
type Amenity struct {
	ID   int64  `json:"id" db:"id" yaml:"id"`
	Name string `json:"name" db:"name" yaml:"name"`
	Icon string `json:"icon" db:"icon" yaml:"icon"`
}

// JSONArray represents a JSON array column
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return fmt.Errorf("unsupported type %T for JSONArray", value)
}
