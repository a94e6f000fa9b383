// Package geo provides the coordinate type shared by the lookup and
// transport layers, plus the distance math used to rank results.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean radius of Earth according to WGS-84 in meters
const EarthRadius = 6371000.0

// Location is an immutable WGS-84 coordinate.
//
// Example:
//
//	pune := geo.Location{Latitude: 18.5204, Longitude: 73.8567}
//	dist := geo.Distance(pune, geo.Location{Latitude: 18.5314, Longitude: 73.8446})
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RangeError reports a coordinate component outside its valid range.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s value: %f (must be between %g and %g)", e.Field, e.Value, e.Min, e.Max)
}

// ValidateCoords checks that lat and lon lie within [-90,90] and [-180,180].
// NaN is always rejected.
func ValidateCoords(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &RangeError{Field: "latitude", Value: lat, Min: -90, Max: 90}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return &RangeError{Field: "longitude", Value: lon, Min: -180, Max: 180}
	}
	return nil
}

// Validate checks the location against ValidateCoords.
func (l Location) Validate() error {
	return ValidateCoords(l.Latitude, l.Longitude)
}

// String formats the location as "lat,lon" with 7 decimal places,
// the precision OpenStreetMap stores.
func (l Location) String() string {
	return fmt.Sprintf("%.7f,%.7f", l.Latitude, l.Longitude)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Location) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineDistance calculates the great-circle distance between two points
// on the Earth's surface given their latitude and longitude in degrees.
// The result is returned in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadius * c
}
