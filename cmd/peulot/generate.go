package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/peulot/internal/services/generator"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new activity plan from stored inspirations",
	RunE:  runGenerate,
}

var (
	generateRequest  string
	generateDuration string
	generateAge      string
	generateModel    string
	generateHTML     string
)

func init() {
	generateCmd.Flags().StringVarP(&generateRequest, "request", "r", "", "What the activity should be about (required)")
	generateCmd.Flags().StringVar(&generateDuration, "duration", "", "Length in minutes or free text (default from generator.default_duration)")
	generateCmd.Flags().StringVar(&generateAge, "age", "", "Target age group (default from generator.default_age_group)")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Model name, e.g. gemini-2.0-flash or claude/claude-3-5-haiku-20241022")
	generateCmd.Flags().StringVar(&generateHTML, "html", "", "Also write the plan as HTML to this file")
	_ = generateCmd.MarkFlagRequired("request")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Storage.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	plan, err := application.Generator.Generate(cmd.Context(), generator.Request{
		Text:     generateRequest,
		Duration: generateDuration,
		AgeGroup: generateAge,
		Model:    generateModel,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), plan.Markdown)

	if generateHTML != "" {
		page, err := generator.RenderHTML(generateRequest, plan.Markdown)
		if err != nil {
			return err
		}
		if err := os.WriteFile(generateHTML, []byte(page), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", generateHTML, err)
		}
		logger.Info().Str("path", generateHTML).Msg("Plan written as HTML")
	}

	return nil
}
