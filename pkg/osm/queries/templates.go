// Package queries provides utilities for building Overpass API queries.
package queries

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTimeout is the server-side timeout, in seconds, requested in every query.
const DefaultTimeout = 25

// FoodAmenities are the amenity values treated as places to eat.
var FoodAmenities = []string{"restaurant", "cafe", "pub", "fast_food"}

// OverpassBuilder provides a fluent interface for building Overpass API queries.
// All queries request JSON output.
type OverpassBuilder struct {
	buf        strings.Builder
	hasElement bool
}

// NewOverpassBuilder creates a new Overpass query builder with the given
// server-side timeout in seconds. Zero selects DefaultTimeout.
func NewOverpassBuilder(timeout int) *OverpassBuilder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &OverpassBuilder{}
	b.buf.WriteString(fmt.Sprintf("[out:json][timeout:%d];", timeout))
	return b
}

// WithAround adds an element query of the given type ("node", "way",
// "relation" or "nwr") within radius meters of a point.
func (b *OverpassBuilder) WithAround(elementType string, lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	b.addElement(fmt.Sprintf("%s(around:%.1f,%.7f,%.7f)", elementType, radius, lat, lon), tags)
	return b
}

// WithNode adds a node query around a point with specified radius and tags.
func (b *OverpassBuilder) WithNode(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.WithAround("node", lat, lon, radius, tags)
}

// WithWay adds a way query around a point with specified radius and tags.
func (b *OverpassBuilder) WithWay(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.WithAround("way", lat, lon, radius, tags)
}

// WithRelation adds a relation query around a point with specified radius and tags.
func (b *OverpassBuilder) WithRelation(lat, lon, radius float64, tags map[string]string) *OverpassBuilder {
	return b.WithAround("relation", lat, lon, radius, tags)
}

// WithAmenity queries nodes, ways and relations carrying amenity=value.
func (b *OverpassBuilder) WithAmenity(value string, lat, lon, radius float64) *OverpassBuilder {
	tags := map[string]string{"amenity": value}
	return b.WithNode(lat, lon, radius, tags).
		WithWay(lat, lon, radius, tags).
		WithRelation(lat, lon, radius, tags)
}

// WithFeature selects a single element by type and id.
func (b *OverpassBuilder) WithFeature(elementType string, ref int64) *OverpassBuilder {
	b.addElement(fmt.Sprintf("%s(%d)", elementType, ref), nil)
	return b
}

// Begin starts a group of queries with parentheses.
func (b *OverpassBuilder) Begin() *OverpassBuilder {
	if !b.hasElement {
		b.buf.WriteString("(")
		b.hasElement = true
	}
	return b
}

// End closes the group with 'out center;', so ways and relations carry a
// center coordinate alongside their tags.
func (b *OverpassBuilder) End() *OverpassBuilder {
	return b.WithOutput("center")
}

// WithOutput closes the group with a custom output mode.
func (b *OverpassBuilder) WithOutput(outputType string) *OverpassBuilder {
	if b.hasElement {
		b.buf.WriteString(fmt.Sprintf(");out %s;", outputType))
		b.hasElement = false
	}
	return b
}

// Build returns the complete Overpass query string.
func (b *OverpassBuilder) Build() string {
	return b.buf.String()
}

func (b *OverpassBuilder) addElement(baseQuery string, tags map[string]string) {
	if !b.hasElement {
		b.Begin()
	}

	b.buf.WriteString(baseQuery)

	// Sorted so the same input always yields the same query text.
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := tags[key]
		if value == "" {
			b.buf.WriteString(fmt.Sprintf("[%s]", quote(key)))
		} else {
			b.buf.WriteString(fmt.Sprintf("[%s=%s]", quote(key), quote(value)))
		}
	}

	b.buf.WriteString(";")
}

// quote renders s as an Overpass QL string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// Restaurants finds every food amenity within radius meters of a point.
func Restaurants(lat, lon, radius float64) string {
	b := NewOverpassBuilder(DefaultTimeout).Begin()
	for _, amenity := range FoodAmenities {
		b.WithAmenity(amenity, lat, lon, radius)
	}
	return b.End().Build()
}

// Feature fetches one element with its tags and center.
func Feature(elementType string, ref int64) string {
	return NewOverpassBuilder(DefaultTimeout).
		WithFeature(elementType, ref).
		End().
		Build()
}
