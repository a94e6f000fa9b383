package server

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/NERVsystems/restaurantmcp/pkg/testutil"
	"github.com/NERVsystems/restaurantmcp/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyLookup struct{}

func (emptyLookup) FindByLocation(context.Context, geo.Location, float64, lookup.Filter) ([]lookup.Record, error) {
	return []lookup.Record{}, nil
}

func (emptyLookup) FindByAddress(context.Context, string, float64, lookup.Filter) ([]lookup.Record, error) {
	return []lookup.Record{}, nil
}

func (emptyLookup) GetDetails(_ context.Context, id string) (lookup.Record, error) {
	return lookup.Record{}, lookup.Errorf(lookup.KindNotFound, lookup.OpGetDetails, "restaurant %q not found", id)
}

func (emptyLookup) SearchByQuery(context.Context, string, *lookup.Area, int) ([]lookup.Record, error) {
	return []lookup.Record{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d := tools.NewDispatcher(emptyLookup{}, testutil.DiscardLogger())
	s, err := NewServer(d, testutil.DiscardLogger())
	require.NoError(t, err)
	return s
}

// handle sends one JSON-RPC message and decodes the response generically.
func handle(t *testing.T, s *Server, msg string) map[string]any {
	t.Helper()
	resp := s.MCP().HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, resp)
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, testutil.DiscardLogger())
	assert.Error(t, err)

	s := newTestServer(t)
	assert.NotNil(t, s.MCP())
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)

	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "%v", resp)
	list, ok := result["tools"].([]any)
	require.True(t, ok)

	var names []string
	for _, item := range list {
		names = append(names, item.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		tools.ToolFindByLocation,
		tools.ToolFindByAddress,
		tools.ToolGetDetails,
		tools.ToolSearchByQuery,
	}, names)
}

func TestCallToolReturnsEnvelope(t *testing.T) {
	s := newTestServer(t)

	resp := handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_restaurant_details","arguments":{"poi_id":"does-not-exist"}}}`)
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "%v", resp)
	assert.Equal(t, true, result["isError"])

	content := result["content"].([]any)
	require.Len(t, content, 1)
	text := content[0].(map[string]any)["text"].(string)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	assert.Equal(t, "error", env["status"])
	assert.Nil(t, env["data"])
	assert.Equal(t, "NotFound", env["kind"])
	assert.Contains(t, env["error"], "not found")
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t)

	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, in, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
