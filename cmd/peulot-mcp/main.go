package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/services/search"
	"github.com/ternarybob/peulot/internal/storage"
)

func main() {
	// PEULOT_CONFIG may list several files separated by commas
	var configPaths []string
	if value := os.Getenv("PEULOT_CONFIG"); value != "" {
		for _, path := range strings.Split(value, ",") {
			if path = strings.TrimSpace(path); path != "" {
				configPaths = append(configPaths, path)
			}
		}
	} else if _, err := os.Stat("peulot.toml"); err == nil {
		configPaths = []string{"peulot.toml"}
	}

	config, err := common.LoadFromFiles(configPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; logs stay minimal
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	ctx := context.Background()

	store, err := storage.NewActivityStorage(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare activity store")
	}

	searchService := search.NewKeywordSearchService(store, logger)

	mcpServer := server.NewMCPServer(
		"peulot",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createListActivitiesTool(), handleListActivities(store, logger))
	mcpServer.AddTool(createGetActivityTool(), handleGetActivity(store, logger))
	mcpServer.AddTool(createSearchActivitiesTool(), handleSearchActivities(searchService, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
