package tools

import (
	"encoding/json"

	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/mark3labs/mcp-go/mcp"
)

func successEnvelope(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// errorEnvelope wraps err with its lookup kind. Errors that did not come
// from the lookup layer are reported as Internal with a generic message.
func errorEnvelope(err error) Envelope {
	kind := lookup.KindOf(err)
	msg := err.Error()
	if kind == lookup.KindInternal {
		msg = "internal error"
	}
	return Envelope{Status: StatusError, Error: &msg, Kind: kind}
}

func unknownTool(name string) Envelope {
	return errorEnvelope(lookup.Errorf(lookup.KindUnknownTool, "dispatch", "unknown tool: %q", name))
}

// ToolResult renders an envelope as MCP tool output. Error envelopes set
// IsError so clients can tell them apart without parsing the text.
func ToolResult(env Envelope) *mcp.CallToolResult {
	body, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError(`{"status":"error","data":null,"error":"failed to encode result","kind":"Internal"}`)
	}
	if !env.OK() {
		return mcp.NewToolResultError(string(body))
	}
	return mcp.NewToolResultText(string(body))
}
