package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
)

// Address is the structured address Nominatim returns with addressdetails=1.
type Address struct {
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	Village     string `json:"village,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Locality returns the most specific settlement name available.
func (a Address) Locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// Place is a single Nominatim result.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	OSMType     string            `json:"osm_type"`
	OSMID       int64             `json:"osm_id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Location    geo.Location      `json:"location"`
	Address     Address           `json:"address"`
	ExtraTags   map[string]string `json:"extratags,omitempty"`
}

// nominatimResult mirrors the jsonv2 wire format, where coordinates are strings.
type nominatimResult struct {
	PlaceID     int64             `json:"place_id"`
	OSMType     string            `json:"osm_type"`
	OSMID       int64             `json:"osm_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     Address           `json:"address"`
	ExtraTags   map[string]string `json:"extratags"`
	Error       string            `json:"error"`
}

func (r nominatimResult) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}
	loc := geo.Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return Place{}, err
	}
	return Place{
		PlaceID:     r.PlaceID,
		OSMType:     r.OSMType,
		OSMID:       r.OSMID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Category:    r.Category,
		Type:        r.Type,
		Importance:  r.Importance,
		Location:    loc,
		Address:     r.Address,
		ExtraTags:   r.ExtraTags,
	}, nil
}

// SearchParams controls a free-text Nominatim search.
type SearchParams struct {
	Query          string
	Limit          int
	AddressDetails bool
	ExtraTags      bool
}

// Search runs a free-text query against Nominatim's /search endpoint.
// An empty result set is returned as an empty slice, not an error.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Place, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("format", "jsonv2")
	limit := p.Limit
	if limit <= 0 {
		limit = 1
	}
	q.Set("limit", strconv.Itoa(limit))
	if p.AddressDetails {
		q.Set("addressdetails", "1")
	}
	if p.ExtraTags {
		q.Set("extratags", "1")
	}
	c.addEmail(q)

	data, err := c.do(ctx, ServiceNominatim, http.MethodGet, c.nominatimURL+"/search?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	var raw []nominatimResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Service: "Nominatim", Err: err}
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		place, err := r.toPlace()
		if err != nil {
			return nil, &DecodeError{Service: "Nominatim", Err: err}
		}
		places = append(places, place)
	}
	return places, nil
}

// Reverse resolves a coordinate to the nearest addressable place.
// It returns ErrNoResults when Nominatim cannot geocode the point.
func (c *Client) Reverse(ctx context.Context, loc geo.Location) (Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 7, 64))
	q.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 7, 64))
	q.Set("format", "jsonv2")
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	c.addEmail(q)

	data, err := c.do(ctx, ServiceNominatim, http.MethodGet, c.nominatimURL+"/reverse?"+q.Encode(), nil, "")
	if err != nil {
		return Place{}, err
	}

	var raw nominatimResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return Place{}, &DecodeError{Service: "Nominatim", Err: err}
	}
	if raw.Error != "" {
		return Place{}, fmt.Errorf("reverse %s: %s: %w", loc, raw.Error, ErrNoResults)
	}

	place, err := raw.toPlace()
	if err != nil {
		return Place{}, &DecodeError{Service: "Nominatim", Err: err}
	}
	return place, nil
}

func (c *Client) addEmail(q url.Values) {
	if c.email != "" {
		q.Set("email", c.email)
	}
}
