package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/services/search"
)

// activitySearcher is the search capability the tools need
type activitySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// handleListActivities implements the list_activities tool
func handleListActivities(store interfaces.ActivityStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := clamp(request.GetInt("limit", 20), 20, 200)

		activities, err := store.ListActivities(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("List activities failed")
			return errorResult(fmt.Sprintf("List error: %v", err)), nil
		}

		total := len(activities)
		// Newest first
		for i, j := 0, len(activities)-1; i < j; i, j = i+1, j-1 {
			activities[i], activities[j] = activities[j], activities[i]
		}
		if len(activities) > limit {
			activities = activities[:limit]
		}

		return textResult(formatActivityList(activities, total)), nil
	}
}

// handleGetActivity implements the get_activity tool
func handleGetActivity(store interfaces.ActivityStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetInt("id", 0)
		if id <= 0 {
			return errorResult("Error: id parameter is required"), nil
		}

		activity, err := store.GetActivity(ctx, int64(id))
		if errors.Is(err, interfaces.ErrNotFound) {
			return errorResult(fmt.Sprintf("Activity %d not found", id)), nil
		}
		if err != nil {
			logger.Error().Err(err).Int("id", id).Msg("Get activity failed")
			return errorResult(fmt.Sprintf("Get error: %v", err)), nil
		}

		return textResult(formatActivity(activity)), nil
	}
}

// handleSearchActivities implements the search_activities tool
func handleSearchActivities(searcher activitySearcher, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("Error: query parameter is required"), nil
		}

		limit := clamp(request.GetInt("limit", search.DefaultLimit), search.DefaultLimit, 20)

		results, err := searcher.Search(ctx, query, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Search failed")
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		return textResult(formatSearchResults(query, results)), nil
	}
}

func clamp(value, fallback, max int) int {
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
