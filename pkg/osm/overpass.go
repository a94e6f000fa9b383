package osm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/osm/queries"
	posm "github.com/paulmach/osm"
)

// Point is a bare coordinate as Overpass encodes it.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is an element returned from the Overpass API with 'out center'.
type Element struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Point            `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Location returns the element's coordinate: its own position for nodes,
// the computed center for ways and relations. It reports false when the
// element carries no usable coordinate.
func (e Element) Location() (geo.Location, bool) {
	var loc geo.Location
	switch e.Type {
	case "node":
		loc = geo.Location{Latitude: e.Lat, Longitude: e.Lon}
	case "way", "relation":
		if e.Center == nil {
			return geo.Location{}, false
		}
		loc = geo.Location{Latitude: e.Center.Lat, Longitude: e.Center.Lon}
	default:
		return geo.Location{}, false
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return geo.Location{}, false
	}
	if loc.Validate() != nil {
		return geo.Location{}, false
	}
	return loc, true
}

// FeatureID returns the element's "type/ref" identifier.
func (e Element) FeatureID() (posm.FeatureID, bool) {
	return FeatureID(e.Type, e.ID)
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
	Remark   string    `json:"remark"`
}

// Query posts raw Overpass QL and returns the resulting elements.
func (c *Client) Query(ctx context.Context, ql string) ([]Element, error) {
	body := strings.NewReader("data=" + url.QueryEscape(ql))
	data, err := c.do(ctx, ServiceOverpass, http.MethodPost, c.overpassURL, body, "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var resp overpassResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &DecodeError{Service: "Overpass", Err: err}
	}

	// Overpass reports aborted queries with a 200 and a remark.
	if strings.Contains(resp.Remark, "runtime error") {
		c.logger.Warn("overpass query aborted", "remark", resp.Remark)
		guidance := GuidanceOverpassTimeout
		if strings.Contains(resp.Remark, "out of memory") {
			guidance = GuidanceOverpassMemory
		}
		return nil, NewAPIError("Overpass", http.StatusOK, resp.Remark, guidance)
	}

	if resp.Elements == nil {
		resp.Elements = []Element{}
	}
	return resp.Elements, nil
}

// Restaurants returns every food amenity within radius meters of center.
func (c *Client) Restaurants(ctx context.Context, center geo.Location, radius float64) ([]Element, error) {
	return c.Query(ctx, queries.Restaurants(center.Latitude, center.Longitude, radius))
}

// Feature fetches a single element. It returns ErrNoResults when the
// element does not exist.
func (c *Client) Feature(ctx context.Context, id posm.FeatureID) (Element, error) {
	elements, err := c.Query(ctx, queries.Feature(string(id.Type()), id.Ref()))
	if err != nil {
		return Element{}, err
	}
	for _, e := range elements {
		if fid, ok := e.FeatureID(); ok && fid == id {
			return e, nil
		}
	}
	return Element{}, ErrNoResults
}
