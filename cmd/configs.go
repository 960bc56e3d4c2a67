package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

func configsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Manage search configurations",
	}
	cmd.AddCommand(configsListCommand(), configsAddCommand())
	return cmd
}

func openConfigs(cmd *cobra.Command) (store.Repository, error) {
	env, err := common.EnvFrom(cmd.Context())
	if err != nil {
		return nil, err
	}
	return common.OpenRepository(cmd.Context(), env.Config.Database, env.Logger)
}

func configsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List search configurations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := openConfigs(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			configs, err := repo.ListSearchConfigs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list search configs: %w", err)
			}
			renderConfigs(cmd.OutOrStdout(), configs)
			return nil
		},
	}
}

func configsAddCommand() *cobra.Command {
	var cfg domain.SearchConfig
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add <search term>",
		Short: "Add a search configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openConfigs(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			cfg.SearchTerm = args[0]
			cfg.Enabled = !disabled
			if err = repo.CreateSearchConfig(cmd.Context(), &cfg); err != nil {
				return fmt.Errorf("create search config: %w", err)
			}
			renderConfigs(cmd.OutOrStdout(), []domain.SearchConfig{cfg})
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.ResultLimit, "limit", 0, "maximum articles per run (0 uses the ingest default)")
	cmd.Flags().StringVar(&cfg.Timeframe, "timeframe", "", "search window such as 1d or 7d (empty uses the ingest default)")
	cmd.Flags().StringVar(&cfg.Category, "category", "", "category stored on ingested articles")
	cmd.Flags().BoolVar(&cfg.FetchFullContent, "full-content", false, "resolve links and extract article text")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the configuration disabled")
	return cmd
}

func renderConfigs(w io.Writer, configs []domain.SearchConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Search", "Limit", "Timeframe", "Category", "Full content", "Enabled"})
	for _, c := range configs {
		t.AppendRow(table.Row{c.ID, c.SearchTerm, c.ResultLimit, c.Timeframe, c.Category, c.FetchFullContent, c.Enabled})
	}
	t.Render()
}
