// Package roomtype maps free-text room labels onto the closed room taxonomy.
package roomtype

import (
	"strings"

	"floorplan-service/internal/floorplan/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// all lists the taxonomy in display order. OTHER is last.
var all = []models.RoomType{
	models.LivingRoom,
	models.Bedroom,
	models.Kitchen,
	models.Bathroom,
	models.DiningRoom,
	models.HomeOffice,
	models.Closet,
	models.Storage,
	models.LaundryRoom,
	models.Corridor,
	models.Balcony,
	models.Other,
}

// synonyms is keyed by the canonical form produced by canonical().
var synonyms = map[string]models.RoomType{
	"living_room":  models.LivingRoom,
	"livingroom":   models.LivingRoom,
	"living":       models.LivingRoom,
	"bedroom":      models.Bedroom,
	"bed_room":     models.Bedroom,
	"kitchen":      models.Kitchen,
	"bathroom":     models.Bathroom,
	"bath":         models.Bathroom,
	"dining_room":  models.DiningRoom,
	"diningroom":   models.DiningRoom,
	"dining":       models.DiningRoom,
	"home_office":  models.HomeOffice,
	"office":       models.HomeOffice,
	"study":        models.HomeOffice,
	"closet":       models.Closet,
	"storage":      models.Storage,
	"laundry_room": models.LaundryRoom,
	"laundry":      models.LaundryRoom,
	"corridor":     models.Corridor,
	"hallway":      models.Corridor,
	"balcony":      models.Balcony,
	"terrace":      models.Balcony,
	"other":        models.Other,
}

// Normalize maps a raw label to a RoomType. Unknown labels map to OTHER.
func Normalize(raw string) models.RoomType {
	if t, ok := synonyms[canonical(raw)]; ok {
		return t
	}
	return models.Other
}

// Display returns the human readable name of t, e.g. "Living Room".
func Display(t models.RoomType) string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// All returns every taxonomy value.
func All() []models.RoomType {
	out := make([]models.RoomType, len(all))
	copy(out, all)
	return out
}

// Synonyms returns a copy of the lookup table.
func Synonyms() map[string]models.RoomType {
	out := make(map[string]models.RoomType, len(synonyms))
	for k, v := range synonyms {
		out[k] = v
	}
	return out
}

// IsValid reports whether t belongs to the taxonomy.
func IsValid(t models.RoomType) bool {
	for _, v := range all {
		if v == t {
			return true
		}
	}
	return false
}

func canonical(raw string) string {
	// Casers carry state, so one is built per call.
	s := cases.Lower(language.Und).String(norm.NFKC.String(raw))
	return strings.ReplaceAll(s, " ", "_")
}
