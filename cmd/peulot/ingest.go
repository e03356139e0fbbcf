package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/peulot/internal/models"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrape the forum and store new activities",
	Long:  `Runs one batch: scrape index pages, filter topics, enrich with the language model and insert new records. Safe to re-run; stored URLs are skipped.`,
	RunE:  runIngest,
}

var (
	ingestPages    int
	ingestIndexURL string
)

func init() {
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "Maximum index pages to walk (overrides forum.max_pages)")
	ingestCmd.Flags().StringVar(&ingestIndexURL, "index-url", "", "Forum index URL (overrides forum.index_url)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestPages > 0 {
		config.Forum.MaxPages = ingestPages
	}
	if ingestIndexURL != "" {
		config.Forum.IndexURL = ingestIndexURL
	}

	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.Processing.Run(cmd.Context())
	if summary != nil {
		printSummary(cmd, summary)
	}
	return err
}

func printSummary(cmd *cobra.Command, summary *models.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "  scraped:  %d\n", summary.Scraped)
	fmt.Fprintf(out, "  worthy:   %d\n", summary.Worthy)
	fmt.Fprintf(out, "  inserted: %d\n", summary.Inserted)
	for _, outcome := range models.AllOutcomes {
		fmt.Fprintf(out, "  %-20s %d\n", outcome+":", summary.Outcomes[outcome])
	}
	for kind, count := range summary.EnrichmentErrors {
		fmt.Fprintf(out, "  enrichment %-9s %d\n", kind+":", count)
	}
}
