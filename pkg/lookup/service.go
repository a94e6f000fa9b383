// Package lookup implements the restaurant lookups on top of the
// OpenStreetMap services: validation, the geocode-then-query pipeline and
// the reshaping of upstream data into Records.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/osm"
	posm "github.com/paulmach/osm"
)

// Operation names, used in errors and logs.
const (
	OpFindByLocation = "find_by_location"
	OpFindByAddress  = "find_by_address"
	OpGetDetails     = "get_details"
	OpSearchByQuery  = "search_by_query"
	OpGeocode        = "geocode"
)

// Defaults applied when Options leaves a field at zero.
const (
	DefaultRadius            = 1000.0
	DefaultMaxRadius         = 10000.0
	DefaultLimit             = 10
	DefaultMaxLimit          = 50
	DefaultGeocodeCandidates = 5
)

// Geocoder resolves free text and coordinates through Nominatim.
type Geocoder interface {
	Search(ctx context.Context, p osm.SearchParams) ([]osm.Place, error)
	Reverse(ctx context.Context, loc geo.Location) (osm.Place, error)
}

// POISource queries points of interest through Overpass.
type POISource interface {
	Restaurants(ctx context.Context, center geo.Location, radius float64) ([]osm.Element, error)
	Feature(ctx context.Context, id posm.FeatureID) (osm.Element, error)
}

// Options tunes the service. Zero values select the defaults above.
type Options struct {
	MaxRadius         float64 // larger radii are clamped
	DefaultLimit      int
	MaxLimit          int
	GeocodeCandidates int // candidates considered when disambiguating an address
}

// Filter narrows a restaurant search.
type Filter struct {
	Cuisine string // case-insensitive match against any cuisine value
	Limit   int    // 0 selects the default; clamped to the maximum
}

// Area bounds a keyword search: either an address to geocode or a point.
type Area struct {
	Address  string
	Location *geo.Location
	Radius   float64 // 0 selects DefaultRadius
}

// ResolvedLocation is the outcome of geocoding an address.
type ResolvedLocation struct {
	Query       string       `json:"query"`
	DisplayName string       `json:"display_name"`
	Location    geo.Location `json:"location"`
	ID          string       `json:"id,omitempty"`
}

// Service exposes the four restaurant lookups. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	geocoder Geocoder
	pois     POISource
	opts     Options
	logger   *slog.Logger
}

// New creates a Service.
func New(geocoder Geocoder, pois POISource, opts Options, logger *slog.Logger) *Service {
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = DefaultMaxRadius
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.GeocodeCandidates <= 0 {
		opts.GeocodeCandidates = DefaultGeocodeCandidates
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		geocoder: geocoder,
		pois:     pois,
		opts:     opts,
		logger:   logger.With("component", "lookup"),
	}
}

// FindByLocation returns places to eat within radius meters of loc,
// nearest first. No match is an empty slice, not an error.
func (s *Service) FindByLocation(ctx context.Context, loc geo.Location, radius float64, f Filter) ([]Record, error) {
	if err := validateLocation(OpFindByLocation, loc); err != nil {
		return nil, err
	}
	if err := validateRadius(OpFindByLocation, radius); err != nil {
		return nil, err
	}
	return s.nearby(ctx, OpFindByLocation, loc, radius, f, "")
}

// FindByAddress geocodes address and then searches around the result.
func (s *Service) FindByAddress(ctx context.Context, address string, radius float64, f Filter) ([]Record, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, invalidArgument(OpFindByAddress, "address must not be empty")
	}
	if err := validateRadius(OpFindByAddress, radius); err != nil {
		return nil, err
	}

	st := &pipeline{op: OpFindByAddress, address: address, radius: radius, filter: f}
	if err := s.run(ctx, st, s.resolveStage, s.nearbyStage); err != nil {
		return nil, err
	}
	return st.records, nil
}

// Geocode resolves an address to the best-ranked candidate: the highest
// Nominatim importance among the first few, the earliest on ties.
func (s *Service) Geocode(ctx context.Context, address string) (ResolvedLocation, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return ResolvedLocation{}, invalidArgument(OpGeocode, "address must not be empty")
	}
	return s.geocode(ctx, OpGeocode, address)
}

func (s *Service) geocode(ctx context.Context, op, address string) (ResolvedLocation, error) {
	places, err := s.geocoder.Search(ctx, osm.SearchParams{Query: address, Limit: s.opts.GeocodeCandidates})
	if err != nil {
		s.logger.Error("geocoding failed", "op", op, "address", address, "error", err)
		return ResolvedLocation{}, upstreamError(op, err)
	}
	if len(places) == 0 {
		return ResolvedLocation{}, notFound(op, "could not find coordinates for address: %s", address)
	}

	best := places[0]
	for _, p := range places[1:] {
		if p.Importance > best.Importance {
			best = p
		}
	}

	resolved := ResolvedLocation{
		Query:       address,
		DisplayName: best.DisplayName,
		Location:    best.Location,
	}
	if id, ok := osm.FeatureID(best.OSMType, best.OSMID); ok {
		resolved.ID = id.String()
	}
	s.logger.Debug("address resolved", "op", op, "address", address, "location", best.Location.String(), "candidates", len(places))
	return resolved, nil
}

// GetDetails fetches one place by its "type/ref" id. Ids that do not parse,
// do not resolve, or name something other than a place to eat are NotFound. A missing address is filled in from
// reverse geocoding when possible.
func (s *Service) GetDetails(ctx context.Context, id string) (Record, error) {
	fid, err := osm.ParseFeatureID(id)
	if err != nil {
		return Record{}, notFound(OpGetDetails, "restaurant %q not found", id)
	}

	element, err := s.pois.Feature(ctx, fid)
	if errors.Is(err, osm.ErrNoResults) {
		return Record{}, notFound(OpGetDetails, "restaurant %q not found", id)
	}
	if err != nil {
		s.logger.Error("feature lookup failed", "id", id, "error", err)
		return Record{}, upstreamError(OpGetDetails, err)
	}

	if amenity := element.Tags["amenity"]; !isFoodAmenity(amenity) {
		s.logger.Debug("feature is not a place to eat", "id", id, "amenity", amenity)
		return Record{}, notFound(OpGetDetails, "restaurant %q not found", id)
	}

	record, ok := recordFromElement(element)
	if !ok {
		return Record{}, Errorf(KindUpstreamDataError, OpGetDetails, "element %s has no usable coordinate", id)
	}

	if record.Address == "" {
		place, err := s.geocoder.Reverse(ctx, record.Location)
		if err != nil {
			s.logger.Warn("reverse geocoding failed, returning record without address", "id", id, "error", err)
		} else {
			record.Address = place.DisplayName
		}
	}
	return record, nil
}

// SearchByQuery finds places whose name or cuisine matches keyword. With an
// area it searches around that area; without one it runs a free-text
// search. An area needs a location or a non-blank address. No match is an
// empty slice, not an error.
func (s *Service) SearchByQuery(ctx context.Context, keyword string, area *Area, limit int) ([]Record, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, invalidArgument(OpSearchByQuery, "query must not be empty")
	}
	f := Filter{Limit: limit}

	if area == nil {
		return s.searchEverywhere(ctx, keyword, f)
	}
	address := strings.TrimSpace(area.Address)
	if area.Location == nil && address == "" {
		return nil, invalidArgument(OpSearchByQuery, "address must not be empty")
	}

	radius := area.Radius
	if math.IsNaN(radius) || radius < 0 {
		return nil, invalidArgument(OpSearchByQuery, "radius must be greater than 0")
	}
	if radius == 0 {
		radius = DefaultRadius
	}

	if area.Location != nil {
		if err := validateLocation(OpSearchByQuery, *area.Location); err != nil {
			return nil, err
		}
		return s.nearby(ctx, OpSearchByQuery, *area.Location, radius, f, keyword)
	}

	st := &pipeline{op: OpSearchByQuery, address: address, radius: radius, filter: f, keyword: keyword}
	if err := s.run(ctx, st, s.resolveStage, s.nearbyStage); err != nil {
		return nil, err
	}
	return st.records, nil
}

func (s *Service) searchEverywhere(ctx context.Context, keyword string, f Filter) ([]Record, error) {
	limit := s.limit(f.Limit)
	places, err := s.geocoder.Search(ctx, osm.SearchParams{
		Query:          keyword + " restaurant",
		Limit:          min(limit*2, 40),
		AddressDetails: true,
		ExtraTags:      true,
	})
	if err != nil {
		s.logger.Error("free-text search failed", "query", keyword, "error", err)
		return nil, upstreamError(OpSearchByQuery, err)
	}

	records := make([]Record, 0, len(places))
	seen := make(map[string]bool, len(places))
	for _, p := range places {
		r, ok := recordFromPlace(p)
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
		if len(records) == limit {
			break
		}
	}
	s.logger.Info("search finished", "query", keyword, "results", len(records))
	return records, nil
}

// nearby fetches food amenities around center and applies the cuisine
// filter and, when set, the keyword filter.
func (s *Service) nearby(ctx context.Context, op string, center geo.Location, radius float64, f Filter, keyword string) ([]Record, error) {
	if radius > s.opts.MaxRadius {
		s.logger.Debug("clamping radius", "op", op, "radius", radius, "max", s.opts.MaxRadius)
		radius = s.opts.MaxRadius
	}
	cuisine := strings.TrimSpace(f.Cuisine)

	elements, err := s.pois.Restaurants(ctx, center, radius)
	if err != nil {
		s.logger.Error("poi query failed", "op", op, "center", center.String(), "error", err)
		return nil, upstreamError(op, err)
	}

	records := make([]Record, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, e := range elements {
		r, ok := recordFromElement(e)
		if !ok || seen[r.ID] {
			continue
		}
		if cuisine != "" && !r.servesCuisine(cuisine) {
			continue
		}
		if keyword != "" && !r.matchesKeyword(keyword) {
			continue
		}
		seen[r.ID] = true
		r.Distance = math.Round(geo.Distance(center, r.Location)*10) / 10
		records = append(records, r)
	}

	sortRecords(records)
	if limit := s.limit(f.Limit); len(records) > limit {
		records = records[:limit]
	}

	s.logger.Info("lookup finished", "op", op, "center", center.String(), "radius", radius, "elements", len(elements), "results", len(records))
	return records, nil
}

func (s *Service) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.opts.DefaultLimit
	case requested > s.opts.MaxLimit:
		return s.opts.MaxLimit
	default:
		return requested
	}
}

func validateLocation(op string, loc geo.Location) error {
	if err := loc.Validate(); err != nil {
		return &Error{Kind: KindInvalidArgument, Op: op, Message: err.Error(), Err: err}
	}
	return nil
}

func validateRadius(op string, radius float64) error {
	if math.IsNaN(radius) || radius <= 0 {
		return invalidArgument(op, "radius must be greater than 0")
	}
	return nil
}
