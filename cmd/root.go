// Package cmd implements the newsdesk command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug level logging.
	debug bool

	rootCmd = &cobra.Command{
		Use:               "newsdesk",
		Short:             "News search scraping and ingestion",
		Long:              `newsdesk scrapes news search results, stores them and serves them back.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadEnv,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute(ctx context.Context) error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(ingestCommand())
	rootCmd.AddCommand(scheduleCommand())
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(configsCommand())
}

// loadEnv reads configuration and builds the logger for every subcommand.
func loadEnv(cmd *cobra.Command, _ []string) error {
	v := config.NewViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if debug || v.GetBool("app.debug") {
		v.Set("logger.level", "debug")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cmd.SetContext(common.WithEnv(cmd.Context(), &common.Env{Config: cfg, Logger: log}))
	return nil
}
