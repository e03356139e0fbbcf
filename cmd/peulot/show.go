package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}

	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Storage.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	a, err := application.Storage.GetActivity(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n\n", a.Topic)
	fmt.Fprintf(out, "ID:          %d\n", a.ID)
	fmt.Fprintf(out, "Source:      %s\n", a.SourceURL)
	fmt.Fprintf(out, "Age group:   %s\n", a.AgeGroup)
	fmt.Fprintf(out, "Duration:    %s\n", a.Duration)
	fmt.Fprintf(out, "Materials:   %s\n", strings.Join(a.Materials, ", "))
	fmt.Fprintf(out, "Tags:        %s\n", strings.Join(a.Tags, ", "))
	fmt.Fprintf(out, "Created:     %s\n\n", a.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "%s\n\n", a.Description)
	fmt.Fprintln(out, a.GamesAndMethods)
	return nil
}
