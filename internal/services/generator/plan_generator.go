// Package generator produces new activity plans from a request and stored inspirations.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/services/search"
)

// InspirationSource retrieves stored activities relevant to a request
type InspirationSource interface {
	Inspirations(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// Request describes the plan to generate
type Request struct {
	Text     string
	Duration string // minutes ("90") or free text; empty uses the configured default
	AgeGroup string
	Model    string
}

// Plan is a generated activity plan in Markdown
type Plan struct {
	Markdown     string
	Inspirations []search.Result
	Provider     string
	Model        string
}

// PlanGenerator builds planner prompts and calls the language model
type PlanGenerator struct {
	llm    interfaces.LLMService
	source InspirationSource
	config *common.GeneratorConfig
	logger arbor.ILogger
}

// NewPlanGenerator creates a new plan generator
func NewPlanGenerator(llm interfaces.LLMService, source InspirationSource, config *common.GeneratorConfig, logger arbor.ILogger) *PlanGenerator {
	return &PlanGenerator{
		llm:    llm,
		source: source,
		config: config,
		logger: logger,
	}
}

// Generate retrieves inspirations and asks the model for a new plan
func (g *PlanGenerator) Generate(ctx context.Context, request Request) (*Plan, error) {
	if strings.TrimSpace(request.Text) == "" {
		return nil, fmt.Errorf("request text is required")
	}

	inspirations, err := g.source.Inspirations(ctx, request.Text, g.config.Inspirations)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve inspirations: %w", err)
	}

	duration := durationText(request.Duration, g.config.DefaultDuration)
	ageGroup := strings.TrimSpace(request.AgeGroup)
	if ageGroup == "" {
		ageGroup = g.config.DefaultAgeGroup
	}

	g.logger.Info().
		Str("duration", duration).
		Str("age_group", ageGroup).
		Int("inspirations", len(inspirations)).
		Msg("Generating activity plan")

	resp, err := g.llm.GenerateContent(ctx, &interfaces.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: buildPrompt(request.Text, duration, ageGroup, search.FormatContext(inspirations))},
		},
		Model:             request.Model,
		Temperature:       g.config.Temperature,
		SystemInstruction: plannerInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	return &Plan{
		Markdown:     strings.TrimSpace(resp.Text),
		Inspirations: inspirations,
		Provider:     resp.Provider,
		Model:        resp.Model,
	}, nil
}
