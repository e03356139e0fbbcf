package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/peulot/internal/models"
	"github.com/ternarybob/peulot/internal/services/search"
)

// formatActivityList formats a page of activities as markdown
func formatActivityList(activities []*models.Activity, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Activities (%d of %d)\n\n", len(activities), total))

	if len(activities) == 0 {
		sb.WriteString("No activities stored.\n")
		return sb.String()
	}

	for _, a := range activities {
		sb.WriteString(fmt.Sprintf("- **%d** %s | %s | %s\n", a.ID, a.Topic, a.AgeGroup, strings.Join(a.Tags, ", ")))
	}
	return sb.String()
}

// formatActivity formats a single activity as markdown
func formatActivity(a *models.Activity) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", a.Topic))
	sb.WriteString(fmt.Sprintf("**ID:** %d\n", a.ID))
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", a.SourceURL))
	sb.WriteString(fmt.Sprintf("**Age group:** %s\n", a.AgeGroup))
	sb.WriteString(fmt.Sprintf("**Duration:** %s\n", a.Duration))
	sb.WriteString(fmt.Sprintf("**Materials:** %s\n", strings.Join(a.Materials, ", ")))
	sb.WriteString(fmt.Sprintf("**Tags:** %s\n", strings.Join(a.Tags, ", ")))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n\n", a.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("%s\n\n", a.Description))
	sb.WriteString("## Games and methods\n\n")
	sb.WriteString(a.GamesAndMethods)
	sb.WriteString("\n")
	return sb.String()
}

// formatSearchResults formats scored matches as markdown
func formatSearchResults(query string, results []search.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	sb.WriteString(search.FormatContext(results))
	sb.WriteString("\nIds: ")
	for i, result := range results {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d (score %d)", result.Activity.ID, result.Score))
	}
	sb.WriteString("\n")
	return sb.String()
}
