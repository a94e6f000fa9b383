package osm

import (
	"fmt"
	"strings"

	posm "github.com/paulmach/osm"
)

// FeatureID builds the stable "type/ref" identifier of an OSM element,
// e.g. "node/123". It reports false for unknown element types.
func FeatureID(elementType string, ref int64) (posm.FeatureID, bool) {
	id, err := posm.Type(elementType).FeatureID(ref)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseFeatureID parses an identifier produced by FeatureID. The type is
// case insensitive and the ref must be positive.
func ParseFeatureID(s string) (posm.FeatureID, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	id, err := posm.ParseFeatureID(norm)
	if err != nil {
		return 0, err
	}
	// refs that are negative or too large for the id's bit layout do not
	// survive the round trip.
	if id.Ref() <= 0 || id.String() != norm {
		return 0, fmt.Errorf("invalid feature id %q: bad ref", s)
	}
	return id, nil
}
