package lookup

import (
	"cmp"
	"slices"
	"strings"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/osm"
	"github.com/NERVsystems/restaurantmcp/pkg/osm/queries"
)

// Record is a restaurant or other place to eat, built from one OSM element.
type Record struct {
	ID           string            `json:"id"` // "node/123", "way/45", ...
	Name         string            `json:"name"`
	Location     geo.Location      `json:"location"`
	Amenity      string            `json:"amenity,omitempty"`
	Cuisine      string            `json:"cuisine,omitempty"`
	Address      string            `json:"address,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Website      string            `json:"website,omitempty"`
	OpeningHours string            `json:"opening_hours,omitempty"`
	Distance     float64           `json:"distance,omitempty"` // meters from the search center
	Tags         map[string]string `json:"tags"`
}

var amenityLabels = map[string]string{
	"restaurant": "Restaurant",
	"cafe":       "Cafe",
	"pub":        "Pub",
	"fast_food":  "Fast Food",
}

func amenityLabel(amenity string) string {
	if label, ok := amenityLabels[amenity]; ok {
		return label
	}
	if amenity == "" {
		return "Place"
	}
	return strings.ReplaceAll(amenity, "_", " ")
}

func isFoodAmenity(amenity string) bool {
	return slices.Contains(queries.FoodAmenities, amenity)
}

// recordFromElement maps an Overpass element. Elements without an id or a
// coordinate are rejected.
func recordFromElement(e osm.Element) (Record, bool) {
	id, ok := e.FeatureID()
	if !ok {
		return Record{}, false
	}
	loc, ok := e.Location()
	if !ok {
		return Record{}, false
	}
	return newRecord(id.String(), loc, e.Tags), true
}

// recordFromPlace maps a Nominatim search result for a food amenity.
func recordFromPlace(p osm.Place) (Record, bool) {
	if p.Category != "amenity" || !isFoodAmenity(p.Type) {
		return Record{}, false
	}
	id, ok := osm.FeatureID(p.OSMType, p.OSMID)
	if !ok {
		return Record{}, false
	}

	tags := make(map[string]string, len(p.ExtraTags)+2)
	for k, v := range p.ExtraTags {
		tags[k] = v
	}
	tags["amenity"] = p.Type
	if p.Name != "" {
		tags["name"] = p.Name
	}

	r := newRecord(id.String(), p.Location, tags)
	if r.Address == "" {
		r.Address = formatPlaceAddress(p.Address)
	}
	return r, true
}

func newRecord(id string, loc geo.Location, tags map[string]string) Record {
	if tags == nil {
		tags = map[string]string{}
	}
	amenity := tags["amenity"]
	name := tags["name"]
	if name == "" {
		name = "Unnamed " + amenityLabel(amenity)
	}
	return Record{
		ID:           id,
		Name:         name,
		Location:     loc,
		Amenity:      amenityLabel(amenity),
		Cuisine:      tags["cuisine"],
		Address:      formatTagAddress(tags),
		Phone:        firstTag(tags, "phone", "contact:phone"),
		Website:      firstTag(tags, "website", "contact:website"),
		OpeningHours: tags["opening_hours"],
		Tags:         tags,
	}
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

// formatTagAddress renders addr:* tags as "12 FC Road, Pune 411004".
func formatTagAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	city := strings.TrimSpace(tags["addr:city"] + " " + tags["addr:postcode"])
	return joinNonEmpty(", ", street, city)
}

func formatPlaceAddress(a osm.Address) string {
	street := strings.TrimSpace(a.HouseNumber + " " + a.Road)
	city := strings.TrimSpace(a.Locality() + " " + a.Postcode)
	return joinNonEmpty(", ", street, city, a.Country)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// cuisines splits the ';'-separated cuisine tag into lowercased values.
func (r Record) cuisines() []string {
	var out []string
	for _, c := range strings.Split(r.Cuisine, ";") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// servesCuisine reports whether any cuisine value contains filter.
func (r Record) servesCuisine(filter string) bool {
	filter = strings.ToLower(filter)
	for _, c := range r.cuisines() {
		if strings.Contains(c, filter) {
			return true
		}
	}
	return false
}

// matchesKeyword reports whether the name or cuisine contains keyword.
func (r Record) matchesKeyword(keyword string) bool {
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(keyword)) || r.servesCuisine(keyword)
}

// sortRecords orders by distance, then name, then id, so output is stable
// for identical upstream data.
func sortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.Distance, b.Distance),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
