package main

import (
	"github.com/spf13/cobra"

	"github.com/ternarybob/peulot/internal/common"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run ingestion on the processing.schedule cron expression",
	RunE:  runSchedule,
}

var scheduleNow bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also run once immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	common.PrintBanner()

	application, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Scheduler.Start(config.Processing.Schedule); err != nil {
		return err
	}
	if scheduleNow {
		application.Scheduler.RunNow()
	}

	<-cmd.Context().Done()

	logger.Info().Msg("Shutdown signal received, waiting for active run")
	<-application.Scheduler.Stop().Done()
	return nil
}
