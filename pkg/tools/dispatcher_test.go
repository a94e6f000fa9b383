package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/NERVsystems/restaurantmcp/pkg/osm"
	"github.com/NERVsystems/restaurantmcp/pkg/testutil"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLookup records the arguments it was called with.
type recordingLookup struct {
	calls   int
	loc     geo.Location
	address string
	radius  float64
	filter  lookup.Filter
	id      string
	keyword string
	area    *lookup.Area
	limit   int

	records []lookup.Record
	err     error
}

func (r *recordingLookup) FindByLocation(_ context.Context, loc geo.Location, radius float64, f lookup.Filter) ([]lookup.Record, error) {
	r.calls++
	r.loc, r.radius, r.filter = loc, radius, f
	return r.records, r.err
}

func (r *recordingLookup) FindByAddress(_ context.Context, address string, radius float64, f lookup.Filter) ([]lookup.Record, error) {
	r.calls++
	r.address, r.radius, r.filter = address, radius, f
	return r.records, r.err
}

func (r *recordingLookup) GetDetails(_ context.Context, id string) (lookup.Record, error) {
	r.calls++
	r.id = id
	if r.err != nil {
		return lookup.Record{}, r.err
	}
	return lookup.Record{ID: id, Name: "Vaishali"}, nil
}

func (r *recordingLookup) SearchByQuery(_ context.Context, keyword string, area *lookup.Area, limit int) ([]lookup.Record, error) {
	r.calls++
	r.keyword, r.area, r.limit = keyword, area, limit
	return r.records, r.err
}

func newRecordingDispatcher() (*Dispatcher, *recordingLookup) {
	rec := &recordingLookup{records: []lookup.Record{}}
	return NewDispatcher(rec, testutil.DiscardLogger()), rec
}

// newOSMDispatcher wires the real lookup service to a fake upstream.
func newOSMDispatcher(t *testing.T) (*Dispatcher, *testutil.FakeOSM) {
	t.Helper()
	fake := testutil.NewFakeOSM(t)
	client := osm.NewClient(osm.Options{
		NominatimURL: fake.NominatimURL(),
		OverpassURL:  fake.OverpassURL(),
		Limits:       osm.Unlimited(),
		Logger:       testutil.DiscardLogger(),
	})
	svc := lookup.New(client, client, lookup.Options{}, testutil.DiscardLogger())
	return NewDispatcher(svc, testutil.DiscardLogger()), fake
}

// roundTrip marshals env and decodes it generically, as a client would see it.
func roundTrip(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestUnknownTool(t *testing.T) {
	d, rec := newRecordingDispatcher()

	argSets := []map[string]any{
		nil,
		{},
		{"latitude": 18.52, "longitude": 73.85},
		{"poi_id": "node/1", "extra": []any{1, 2}},
	}
	for _, a := range argSets {
		env := d.Call(context.Background(), Request{Tool: "find_pizza", Args: a})
		assert.Equal(t, StatusError, env.Status)
		assert.Equal(t, lookup.KindUnknownTool, env.Kind)
		assert.Nil(t, env.Data)
		require.NotNil(t, env.Error)
		assert.Contains(t, *env.Error, "find_pizza")
	}
	assert.Zero(t, rec.calls)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{name: "missing latitude", tool: ToolFindByLocation, args: map[string]any{"longitude": 73.85}, wantErr: "latitude is required"},
		{name: "latitude wrong type", tool: ToolFindByLocation, args: map[string]any{"latitude": true, "longitude": 73.85}, wantErr: "latitude must be a number"},
		{name: "latitude not numeric", tool: ToolFindByLocation, args: map[string]any{"latitude": "north", "longitude": 73.85}, wantErr: "latitude must be a number"},
		{name: "latitude out of range", tool: ToolFindByLocation, args: map[string]any{"latitude": 91.0, "longitude": 73.85}, wantErr: "latitude is out of range"},
		{name: "zero radius", tool: ToolFindByLocation, args: map[string]any{"latitude": 18.5, "longitude": 73.8, "radius": 0}, wantErr: "radius must be greater than 0"},
		{name: "negative radius", tool: ToolFindByAddress, args: map[string]any{"address": "Pune", "radius": -10}, wantErr: "radius must be greater than 0"},
		{name: "address missing", tool: ToolFindByAddress, args: map[string]any{}, wantErr: "address is required"},
		{name: "address wrong type", tool: ToolFindByAddress, args: map[string]any{"address": 42}, wantErr: "address must be a string"},
		{name: "limit not integer", tool: ToolFindByAddress, args: map[string]any{"address": "Pune", "limit": "many"}, wantErr: "limit must be an integer"},
		{name: "poi_id missing", tool: ToolGetDetails, args: nil, wantErr: "poi_id is required"},
		{name: "query missing", tool: ToolSearchByQuery, args: map[string]any{"address": "Pune"}, wantErr: "query is required"},
		{name: "blank search address", tool: ToolSearchByQuery, args: map[string]any{"query": "pizza", "address": "   "}, wantErr: "address must not be empty"},
		{name: "empty search address", tool: ToolSearchByQuery, args: map[string]any{"query": "pizza", "address": ""}, wantErr: "address must not be empty"},
		{name: "latitude without longitude", tool: ToolSearchByQuery, args: map[string]any{"query": "pizza", "latitude": 18.5}, wantErr: "longitude is required when latitude is set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := newRecordingDispatcher()

			env := d.Call(context.Background(), Request{Tool: tt.tool, Args: tt.args})
			assert.Equal(t, StatusError, env.Status)
			assert.Equal(t, lookup.KindInvalidArgument, env.Kind)
			require.NotNil(t, env.Error)
			assert.Contains(t, *env.Error, tt.wantErr)
			assert.Zero(t, rec.calls, "lookup must not run for invalid arguments")
		})
	}
}

func TestArgumentDecoding(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d, rec := newRecordingDispatcher()

		env := d.Call(context.Background(), Request{Tool: ToolFindByLocation, Args: map[string]any{
			"latitude": 18.5204, "longitude": 73.8567,
		}})
		require.True(t, env.OK(), "%+v", env)
		assert.Equal(t, 18.5204, rec.loc.Latitude)
		assert.Equal(t, lookup.DefaultRadius, rec.radius)
		assert.Equal(t, lookup.DefaultLimit, rec.filter.Limit)
	})

	t.Run("numeric strings and json numbers", func(t *testing.T) {
		d, rec := newRecordingDispatcher()

		env := d.Call(context.Background(), Request{Tool: ToolFindByLocation, Args: map[string]any{
			"latitude": "18.5204", "longitude": json.Number("73.8567"), "radius": "500", "limit": 5.0, "cuisine": "pizza",
		}})
		require.True(t, env.OK(), "%+v", env)
		assert.Equal(t, 73.8567, rec.loc.Longitude)
		assert.Equal(t, 500.0, rec.radius)
		assert.Equal(t, 5, rec.filter.Limit)
		assert.Equal(t, "pizza", rec.filter.Cuisine)
	})

	t.Run("limit clamp", func(t *testing.T) {
		tests := []struct {
			limit any
			want  int
		}{
			{limit: 0, want: 10},
			{limit: -3, want: 1},
			{limit: 1, want: 1},
			{limit: 50, want: 50},
			{limit: 500, want: 50},
			{limit: 1e30, want: 50},
			{limit: json.Number("1e30"), want: 50},
			{limit: "99999999999999999999", want: 50},
			{limit: -1e30, want: 1},
		}
		for _, tt := range tests {
			d, rec := newRecordingDispatcher()
			env := d.Call(context.Background(), Request{Tool: ToolFindByAddress, Args: map[string]any{"address": "Pune", "limit": tt.limit}})
			require.True(t, env.OK())
			assert.Equal(t, tt.want, rec.filter.Limit, "limit %v", tt.limit)
		}
	})

	t.Run("search area from coordinates", func(t *testing.T) {
		d, rec := newRecordingDispatcher()

		env := d.Call(context.Background(), Request{Tool: ToolSearchByQuery, Args: map[string]any{
			"query": "biryani", "latitude": 18.52, "longitude": 73.85, "radius": 300,
		}})
		require.True(t, env.OK())
		require.NotNil(t, rec.area)
		require.NotNil(t, rec.area.Location)
		assert.Equal(t, 18.52, rec.area.Location.Latitude)
		assert.Equal(t, 300.0, rec.area.Radius)
		assert.Equal(t, "biryani", rec.keyword)
	})

	t.Run("search area from address", func(t *testing.T) {
		d, rec := newRecordingDispatcher()

		env := d.Call(context.Background(), Request{Tool: ToolSearchByQuery, Args: map[string]any{"query": "biryani", "address": "Pune"}})
		require.True(t, env.OK())
		require.NotNil(t, rec.area)
		assert.Equal(t, "Pune", rec.area.Address)
		assert.Nil(t, rec.area.Location)
	})

	t.Run("search without area", func(t *testing.T) {
		d, rec := newRecordingDispatcher()

		env := d.Call(context.Background(), Request{Tool: ToolSearchByQuery, Args: map[string]any{"query": "biryani"}})
		require.True(t, env.OK())
		assert.Nil(t, rec.area)
		assert.Equal(t, lookup.DefaultLimit, rec.limit)
	})
}

func TestEnvelopeShape(t *testing.T) {
	d, rec := newRecordingDispatcher()
	rec.records = []lookup.Record{}

	success := roundTrip(t, d.Call(context.Background(), Request{Tool: ToolFindByAddress, Args: map[string]any{"address": "Pune"}}))
	assert.Equal(t, "success", success["status"])
	assert.Nil(t, success["error"])
	assert.NotContains(t, success, "kind")
	data, ok := success["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, []any{}, data["restaurants"])

	rec.err = lookup.Errorf(lookup.KindUpstreamUnavailable, lookup.OpFindByAddress, "Overpass API error (504)")
	failure := roundTrip(t, d.Call(context.Background(), Request{Tool: ToolFindByAddress, Args: map[string]any{"address": "Pune"}}))
	assert.Equal(t, "error", failure["status"])
	assert.Nil(t, failure["data"])
	assert.Equal(t, "Overpass API error (504)", failure["error"])
	assert.Equal(t, "UpstreamUnavailable", failure["kind"])
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	d, rec := newRecordingDispatcher()
	rec.err = assert.AnError

	env := d.Call(context.Background(), Request{Tool: ToolGetDetails, Args: map[string]any{"poi_id": "node/1"}})
	assert.Equal(t, lookup.KindInternal, env.Kind)
	require.NotNil(t, env.Error)
	assert.Equal(t, "internal error", *env.Error)
}

func TestGetDetailsDoesNotExist(t *testing.T) {
	d, fake := newOSMDispatcher(t)

	body := roundTrip(t, d.Call(context.Background(), Request{
		Tool: ToolGetDetails,
		Args: map[string]any{"poi_id": "does-not-exist"},
	}))
	assert.Equal(t, "error", body["status"])
	assert.Nil(t, body["data"])
	assert.Contains(t, body["error"], "not found")
	assert.Equal(t, "NotFound", body["kind"])
	assert.Zero(t, fake.OverpassCalls.Load(), "malformed ids never reach Overpass")
}

func TestSearchThenDetailsRoundTrip(t *testing.T) {
	d, fake := newOSMDispatcher(t)
	fake.Search["pune"] = `[{"osm_type":"relation","osm_id":1950110,"lat":"18.5204","lon":"73.8567","display_name":"Pune, Maharashtra, India","importance":0.7}]`
	fake.Around = `[
		{"type":"node","id":101,"lat":18.5210,"lon":73.8570,"tags":{"amenity":"restaurant","name":"Pizza Express","cuisine":"pizza","addr:street":"FC Road","addr:city":"Pune"}},
		{"type":"node","id":102,"lat":18.5230,"lon":73.8590,"tags":{"amenity":"cafe","name":"Cafe Goodluck"}}
	]`
	fake.Features["node/101"] = `{"type":"node","id":101,"lat":18.5210,"lon":73.8570,"tags":{"amenity":"restaurant","name":"Pizza Express","cuisine":"pizza","addr:street":"FC Road","addr:city":"Pune"}}`

	env := d.Call(context.Background(), Request{Tool: ToolSearchByQuery, Args: map[string]any{"query": "pizza", "address": "Pune"}})
	require.True(t, env.OK(), "%+v", env)
	list, ok := env.Data.(RestaurantList)
	require.True(t, ok)
	require.Equal(t, 1, list.Count)
	found := list.Restaurants[0]
	assert.Equal(t, "node/101", found.ID)

	first := d.Call(context.Background(), Request{Tool: ToolGetDetails, Args: map[string]any{"poi_id": found.ID}})
	require.True(t, first.OK(), "%+v", first)
	second := d.Call(context.Background(), Request{Tool: ToolGetDetails, Args: map[string]any{"poi_id": found.ID}})
	assert.Equal(t, first, second)

	details := first.Data.(lookup.Record)
	assert.Equal(t, found.ID, details.ID)
	assert.Equal(t, found.Name, details.Name)
	assert.Equal(t, found.Location, details.Location)
	assert.Equal(t, "FC Road, Pune", details.Address)
}

func TestUpstreamFailuresMapToKinds(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		d, fake := newOSMDispatcher(t)
		fake.SetStatus(http.StatusServiceUnavailable)

		env := d.Call(context.Background(), Request{Tool: ToolFindByLocation, Args: map[string]any{"latitude": 18.52, "longitude": 73.85}})
		assert.Equal(t, lookup.KindUpstreamUnavailable, env.Kind)
	})

	t.Run("malformed body", func(t *testing.T) {
		d, fake := newOSMDispatcher(t)
		fake.Around = `"not a list"`

		env := d.Call(context.Background(), Request{Tool: ToolFindByLocation, Args: map[string]any{"latitude": 18.52, "longitude": 73.85}})
		assert.Equal(t, lookup.KindUpstreamDataError, env.Kind)
	})

	t.Run("unreachable", func(t *testing.T) {
		d, fake := newOSMDispatcher(t)
		fake.Close()

		env := d.Call(context.Background(), Request{Tool: ToolFindByAddress, Args: map[string]any{"address": "Pune"}})
		assert.Equal(t, lookup.KindUpstreamUnavailable, env.Kind)
	})

	t.Run("address not found", func(t *testing.T) {
		d, fake := newOSMDispatcher(t)

		env := d.Call(context.Background(), Request{Tool: ToolFindByAddress, Args: map[string]any{"address": "Atlantis"}})
		assert.Equal(t, lookup.KindNotFound, env.Kind)
		assert.Zero(t, fake.OverpassCalls.Load())
	})
}

func TestRegistryHandler(t *testing.T) {
	d, _ := newRecordingDispatcher()
	registry := NewRegistry(d, testutil.DiscardLogger())

	req := mcp.CallToolRequest{}
	req.Params.Name = ToolGetDetails
	req.Params.Arguments = map[string]any{"poi_id": "node/7"}

	result, err := registry.Handler(ToolGetDetails)(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	assert.Equal(t, "success", env["status"])

	req.Params.Arguments = map[string]any{}
	result, err = registry.Handler(ToolGetDetails)(context.Background(), req)
	require.NoError(t, err, "request failures are reported in the result")
	assert.True(t, result.IsError)
}

func TestToolsListing(t *testing.T) {
	d, _ := newRecordingDispatcher()

	var names []string
	for _, def := range d.Tools() {
		names = append(names, def.Name)
		assert.Equal(t, def.Name, def.Tool.Name)
		assert.NotEmpty(t, def.Description)
	}
	assert.Equal(t, []string{ToolFindByLocation, ToolFindByAddress, ToolGetDetails, ToolSearchByQuery}, names)
}
