package tools

import (
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/mark3labs/mcp-go/mcp"
)

// FindByLocationTool returns the schema for find_restaurants_by_location.
func FindByLocationTool() mcp.Tool {
	return mcp.NewTool(ToolFindByLocation,
		mcp.WithDescription("Find restaurants, cafes, pubs and fast food near a coordinate"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Latitude of the search center, between -90 and 90"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Longitude of the search center, between -180 and 180"),
		),
		radiusOption(),
		cuisineOption(),
		limitOption(),
	)
}

// FindByAddressTool returns the schema for find_restaurants_by_address.
func FindByAddressTool() mcp.Tool {
	return mcp.NewTool(ToolFindByAddress,
		mcp.WithDescription("Find restaurants near an address or place name"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Address or place name, e.g. \"FC Road, Pune, India\""),
		),
		radiusOption(),
		cuisineOption(),
		limitOption(),
	)
}

// GetDetailsTool returns the schema for get_restaurant_details.
func GetDetailsTool() mcp.Tool {
	return mcp.NewTool(ToolGetDetails,
		mcp.WithDescription("Get the details of one restaurant by the id returned from a search"),
		mcp.WithString("poi_id",
			mcp.Required(),
			mcp.Description("Restaurant id in OpenStreetMap form, e.g. \"node/123456\""),
		),
	)
}

// SearchByQueryTool returns the schema for search_restaurants_by_query.
func SearchByQueryTool() mcp.Tool {
	return mcp.NewTool(ToolSearchByQuery,
		mcp.WithDescription("Search restaurants by name or cuisine, optionally around an address or coordinate"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keyword matched against restaurant names and cuisines"),
		),
		mcp.WithString("address",
			mcp.Description("Restrict the search to the area around this address"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Latitude of the search center; requires longitude"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Longitude of the search center; requires latitude"),
		),
		radiusOption(),
		limitOption(),
	)
}

func radiusOption() mcp.ToolOption {
	return mcp.WithNumber("radius",
		mcp.Description("Search radius in meters (larger values are capped)"),
		mcp.DefaultNumber(lookup.DefaultRadius),
	)
}

func cuisineOption() mcp.ToolOption {
	return mcp.WithString("cuisine",
		mcp.Description("Only return places serving this cuisine, e.g. \"pizza\" or \"indian\""),
	)
}

func limitOption() mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description("Maximum number of results (1-50)"),
		mcp.DefaultNumber(lookup.DefaultLimit),
		mcp.Min(1),
		mcp.Max(lookup.DefaultMaxLimit),
	)
}
