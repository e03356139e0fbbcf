package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListActivitiesTool returns the list_activities tool definition
func createListActivitiesTool() mcp.Tool {
	return mcp.NewTool("list_activities",
		mcp.WithDescription("List stored youth activities (newest first) with topic, age group and tags"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum activities to return (default: 20, max: 200)"),
		),
	)
}

// createGetActivityTool returns the get_activity tool definition
func createGetActivityTool() mcp.Tool {
	return mcp.NewTool("get_activity",
		mcp.WithDescription("Retrieve one stored activity, including the full games and methods text"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Activity id as shown by list_activities"),
		),
	)
}

// createSearchActivitiesTool returns the search_activities tool definition
func createSearchActivitiesTool() mcp.Tool {
	return mcp.NewTool("search_activities",
		mcp.WithDescription("Find stored activities sharing words with a free-text request (Hebrew or English)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text request, e.g. a topic or theme"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 3, max: 20)"),
		),
	)
}
