// Package tools provides the restaurant finder MCP tools: their schemas,
// argument decoding and the dispatcher that routes a call to the lookup
// service and wraps the outcome in an Envelope.
package tools

import (
	"github.com/NERVsystems/restaurantmcp/pkg/geo"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
)

// Tool names.
const (
	ToolFindByLocation = "find_restaurants_by_location"
	ToolFindByAddress  = "find_restaurants_by_address"
	ToolGetDetails     = "get_restaurant_details"
	ToolSearchByQuery  = "search_restaurants_by_query"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request names a tool and carries its raw arguments.
type Request struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Envelope is the uniform response to every tool call. Data is null on
// error; Error and Kind are null/absent on success.
type Envelope struct {
	Status string      `json:"status"`
	Data   any         `json:"data"`
	Error  *string     `json:"error"`
	Kind   lookup.Kind `json:"kind,omitempty"`
}

// OK reports whether the envelope carries a success.
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}

// RestaurantList is the payload of the list-returning tools.
type RestaurantList struct {
	Count       int             `json:"count"`
	Center      *geo.Location   `json:"center,omitempty"`
	Radius      float64         `json:"radius,omitempty"`
	Restaurants []lookup.Record `json:"restaurants"`
}
