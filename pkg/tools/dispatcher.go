package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
)

// Lookup is the set of operations the tools expose. *lookup.Service
// implements it.
type Lookup interface {
	FindByLocation(ctx context.Context, loc geo.Location, radius float64, f lookup.Filter) ([]lookup.Record, error)
	FindByAddress(ctx context.Context, address string, radius float64, f lookup.Filter) ([]lookup.Record, error)
	GetDetails(ctx context.Context, id string) (lookup.Record, error)
	SearchByQuery(ctx context.Context, keyword string, area *lookup.Area, limit int) ([]lookup.Record, error)
}

// ToolDefinition describes one tool.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool

	call func(ctx context.Context, a *args) (any, error)
}

// Dispatcher routes tool calls to a Lookup. It is safe for concurrent use.
type Dispatcher struct {
	svc      Lookup
	logger   *slog.Logger
	validate *validator.Validate
	defs     []ToolDefinition
	byName   map[string]ToolDefinition
}

// NewDispatcher creates a Dispatcher over svc.
func NewDispatcher(svc Lookup, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		svc:      svc,
		logger:   logger.With("component", "tools"),
		validate: newValidator(),
	}
	d.defs = []ToolDefinition{
		{
			Name:        ToolFindByLocation,
			Description: "Find restaurants near a coordinate",
			Tool:        FindByLocationTool(),
			call:        d.findByLocation,
		},
		{
			Name:        ToolFindByAddress,
			Description: "Find restaurants near an address",
			Tool:        FindByAddressTool(),
			call:        d.findByAddress,
		},
		{
			Name:        ToolGetDetails,
			Description: "Get the details of one restaurant",
			Tool:        GetDetailsTool(),
			call:        d.getDetails,
		},
		{
			Name:        ToolSearchByQuery,
			Description: "Search restaurants by name or cuisine",
			Tool:        SearchByQueryTool(),
			call:        d.searchByQuery,
		},
	}
	d.byName = make(map[string]ToolDefinition, len(d.defs))
	for _, def := range d.defs {
		d.byName[def.Name] = def
	}
	return d
}

// Tools returns the tool definitions in a fixed order.
func (d *Dispatcher) Tools() []ToolDefinition {
	out := make([]ToolDefinition, len(d.defs))
	copy(out, d.defs)
	return out
}

// Call runs one tool. It never panics on bad input and always returns an
// envelope; request-level failures are reported inside it.
func (d *Dispatcher) Call(ctx context.Context, req Request) (env Envelope) {
	logger := d.logger.With("tool", req.Tool)

	def, ok := d.byName[req.Tool]
	if !ok {
		logger.Warn("unknown tool requested")
		return unknownTool(req.Tool)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", "panic", r)
			env = errorEnvelope(fmt.Errorf("panic in %s: %v", req.Tool, r))
		}
	}()

	start := time.Now()
	data, err := def.call(ctx, newArgs(req.Tool, req.Args))
	if err != nil {
		kind := lookup.KindOf(err)
		switch kind {
		case lookup.KindInvalidArgument, lookup.KindNotFound:
			logger.Info("tool call rejected", "kind", kind, "error", err)
		default:
			logger.Error("tool call failed", "kind", kind, "error", err)
		}
		return errorEnvelope(err)
	}

	logger.Debug("tool call succeeded", "duration", time.Since(start))
	return successEnvelope(data)
}

func (d *Dispatcher) findByLocation(ctx context.Context, a *args) (any, error) {
	in := locationArgs{
		Latitude:  a.Number("latitude", 0),
		Longitude: a.Number("longitude", 0),
		Radius:    a.Number("radius", lookup.DefaultRadius),
		Cuisine:   a.String("cuisine"),
		Limit:     a.Int("limit", 0),
	}
	for _, name := range []string{"latitude", "longitude"} {
		if _, ok := a.get(name); !ok {
			a.fail("%s is required", name)
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := validate(d.validate, ToolFindByLocation, in); err != nil {
		return nil, err
	}

	center := geo.Location{Latitude: in.Latitude, Longitude: in.Longitude}
	records, err := d.svc.FindByLocation(ctx, center, in.Radius, lookup.Filter{Cuisine: in.Cuisine, Limit: clampLimit(in.Limit)})
	if err != nil {
		return nil, err
	}
	return RestaurantList{Count: len(records), Center: &center, Radius: in.Radius, Restaurants: records}, nil
}

func (d *Dispatcher) findByAddress(ctx context.Context, a *args) (any, error) {
	in := addressArgs{
		Address: a.String("address"),
		Radius:  a.Number("radius", lookup.DefaultRadius),
		Cuisine: a.String("cuisine"),
		Limit:   a.Int("limit", 0),
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := validate(d.validate, ToolFindByAddress, in); err != nil {
		return nil, err
	}

	records, err := d.svc.FindByAddress(ctx, in.Address, in.Radius, lookup.Filter{Cuisine: in.Cuisine, Limit: clampLimit(in.Limit)})
	if err != nil {
		return nil, err
	}
	return RestaurantList{Count: len(records), Radius: in.Radius, Restaurants: records}, nil
}

func (d *Dispatcher) getDetails(ctx context.Context, a *args) (any, error) {
	in := detailsArgs{PoiID: a.String("poi_id")}
	if a.err != nil {
		return nil, a.err
	}
	if err := validate(d.validate, ToolGetDetails, in); err != nil {
		return nil, err
	}
	return d.svc.GetDetails(ctx, in.PoiID)
}

func (d *Dispatcher) searchByQuery(ctx context.Context, a *args) (any, error) {
	in := queryArgs{
		Query:     a.String("query"),
		Address:   a.String("address"),
		Latitude:  a.OptionalNumber("latitude"),
		Longitude: a.OptionalNumber("longitude"),
		Radius:    a.Number("radius", 0),
		Limit:     a.Int("limit", 0),
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := validate(d.validate, ToolSearchByQuery, in); err != nil {
		return nil, err
	}

	var area *lookup.Area
	switch {
	case in.Latitude != nil && in.Longitude != nil:
		area = &lookup.Area{
			Location: &geo.Location{Latitude: *in.Latitude, Longitude: *in.Longitude},
			Radius:   in.Radius,
		}
	case a.has("address"):
		if strings.TrimSpace(in.Address) == "" {
			return nil, lookup.Errorf(lookup.KindInvalidArgument, ToolSearchByQuery, "address must not be empty")
		}
		area = &lookup.Area{Address: in.Address, Radius: in.Radius}
	}

	records, err := d.svc.SearchByQuery(ctx, in.Query, area, clampLimit(in.Limit))
	if err != nil {
		return nil, err
	}
	return RestaurantList{Count: len(records), Restaurants: records}, nil
}
