package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored activities",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Storage.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	activities, err := application.Storage.ListActivities(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPIC\tAGE\tDURATION\tTAGS\tSOURCE")
	for _, a := range activities {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Topic, a.AgeGroup, a.Duration, strings.Join(a.Tags, ","), a.SourceURL)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d activities\n", len(activities))
	return nil
}
