package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// amenityAliases maps the ways people spell an amenity to its catalogue name
var amenityAliases = map[string]string{
	"wifi":              "WiFi",
	"wi-fi":             "WiFi",
	"wi fi":             "WiFi",
	"internet":          "WiFi",
	"parking":           "Parking",
	"car park":          "Parking",
	"bike parking":      "Parking",
	"water":             "Water Supply",
	"water supply":      "Water Supply",
	"pani":              "Water Supply",
	"24 hour water":     "Water Supply",
	"geyser":            "Hot Water",
	"hot water":         "Hot Water",
	"water heater":      "Hot Water",
	"solar":             "Hot Water",
	"lift":              "Lift",
	"elevator":          "Lift",
	"cctv":              "Security",
	"security":          "Security",
	"guard":             "Security",
	"inverter":          "Power Backup",
	"power backup":      "Power Backup",
	"backup":            "Power Backup",
	"generator":         "Power Backup",
	"attached bathroom": "Attached Bathroom",
	"attached bath":     "Attached Bathroom",
	"attach bathroom":   "Attached Bathroom",
	"balcony":           "Balcony",
	"terrace":           "Balcony",
	"furnished":         "Furnished",
	"fully furnished":   "Furnished",
	"semi furnished":    "Furnished",
	"kitchen":           "Kitchen",
	"modular kitchen":   "Kitchen",
	"garden":            "Garden",
	"ac":                "Air Conditioning",
	"a/c":               "Air Conditioning",
	"aircon":            "Air Conditioning",
	"air conditioner":   "Air Conditioning",
	"air conditioning":  "Air Conditioning",
	"washing machine":   "Washing Machine",
	"laundry":           "Washing Machine",
	"pet friendly":      "Pet Friendly",
	"pets allowed":      "Pet Friendly",
}

var titleCaser = cases.Title(language.English)

// CanonicalAmenity maps a free-form amenity term onto the catalogue name.
// Unknown terms come back trimmed and title-cased.
func CanonicalAmenity(term string) string {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return ""
	}

	key := strings.Join(strings.Fields(strings.ToLower(trimmed)), " ")
	if name, ok := amenityAliases[key]; ok {
		return name
	}
	if strings.ToLower(trimmed) == trimmed {
		return titleCaser.String(trimmed)
	}
	return trimmed
}

// CanonicalAmenities canonicalizes a list, dropping blanks and duplicates
func CanonicalAmenities(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	var out []string
	for _, t := range terms {
		name := CanonicalAmenity(t)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}
