package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Store an activity written by hand",
	Long:  `Reads activity text from --file or stdin, enriches it and stores it. Without --url the record is marked as a manual entry.`,
	RunE:  runAdd,
}

var (
	addFile string
	addURL  string
)

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "File containing the activity text (default stdin)")
	addCmd.Flags().StringVar(&addURL, "url", "", "Source URL of the activity, if any")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var (
		text []byte
		err  error
	)
	if addFile != "" {
		text, err = os.ReadFile(addFile)
	} else {
		text, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read activity text: %w", err)
	}

	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	id, outcome, err := application.Processing.IngestText(cmd.Context(), string(text), addURL)
	if err != nil {
		return fmt.Errorf("activity not stored (%s): %w", outcome, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored activity %d (%s)\n", id, outcome)
	return nil
}
