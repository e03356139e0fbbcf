package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/app"
	"github.com/ternarybob/peulot/internal/common"
)

var (
	configFiles []string

	// Set by the root command before any subcommand runs
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "peulot",
	Short:         "Collect, store and generate youth activity plans",
	Long:          `Scrapes activity write-ups from a forum, filters and enriches them with a language model, stores them, and uses them as inspiration for new plans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")

	rootCmd.AddCommand(ingestCmd, listCmd, showCmd, addCmd, generateCmd, scheduleCmd, versionCmd)
}

func main() {
	defer common.RecoverWithCrashFile(crashLogDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// crashLogDir follows the configured log directory once configuration is loaded
func crashLogDir() string {
	if config != nil && config.Logging.Dir != "" {
		return config.Logging.Dir
	}
	return common.DefaultCrashLogDir
}

// loadConfig runs the startup sequence: defaults, files, environment, then logger
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("peulot.toml"); err == nil {
			configFiles = append(configFiles, "peulot.toml")
		} else if _, err := os.Stat("deployments/local/peulot.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/peulot.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("storage_type", config.Storage.Type).
		Str("log_level", config.Logging.Level).
		Str("index_url", config.Forum.IndexURL).
		Msg("Configuration loaded")

	return nil
}

// openApp builds the application for one command invocation
func openApp(ctx context.Context) (*app.App, error) {
	application, err := app.New(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}
