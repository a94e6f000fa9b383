// Package prompts provides prompt templates for use with the MCP server.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterRestaurantPrompts registers the restaurant search prompts with the MCP server.
func RegisterRestaurantPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("restaurant_search",
		mcp.WithPromptDescription("Instructions for using the restaurant finder tools"),
	), RestaurantSearchPromptHandler)

	s.AddPrompt(mcp.NewPrompt("restaurant_search_examples",
		mcp.WithPromptDescription("Examples of restaurant finder tool calls"),
	), RestaurantSearchExamplesHandler)
}

// RestaurantSearchPromptHandler returns the main prompt for the restaurant tools.
func RestaurantSearchPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemPrompt := `You have access to tools that find restaurants, cafes, pubs and fast food places using OpenStreetMap data.
When using these tools:

1. Prefer find_restaurants_by_location when you already know coordinates
2. Use find_restaurants_by_address with a city and country, e.g. "FC Road, Pune, India"
3. Use search_restaurants_by_query to look for a dish, cuisine or restaurant name
4. Pass the "id" of a result (e.g. "node/123456") to get_restaurant_details for phone, website and opening hours
5. Keep the radius small in dense cities; large radii are capped

Every tool answers with {"status", "data", "error", "kind"}.

ERROR HANDLING GUIDELINES:
- kind "InvalidArgument": fix the arguments named in the error and retry
- kind "NotFound": the address or id does not exist; try a more complete address
- kind "UpstreamUnavailable": the map service is busy; wait a few seconds before retrying
- kind "UpstreamDataError": the map service sent something unexpected; try a different query
- An empty "restaurants" list is not an error: nothing matched in that area`

	return mcp.NewGetPromptResult(
		"Restaurant Finder Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(systemPrompt),
			),
		},
	), nil
}

// RestaurantSearchExamplesHandler returns example tool calls.
func RestaurantSearchExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE RESTAURANT FINDER USAGE:

User: "Where can I eat near Shaniwar Wada?"
AI: *uses find_restaurants_by_address with address "Shaniwar Wada, Pune, India" and radius 1000*

User: "Any pizza places around 18.5204, 73.8567?"
AI: *uses find_restaurants_by_location with latitude 18.5204, longitude 73.8567, cuisine "pizza"*

User: "Find me biryani in Pune"
AI: *uses search_restaurants_by_query with query "biryani" and address "Pune, India"*

User: "When does that second one open?"
AI: *uses get_restaurant_details with the poi_id of the second result*`

	return mcp.NewGetPromptResult(
		"Restaurant Finder Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}
