package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/ingest"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/schedule"
)

const msRound = time.Millisecond

func ingestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run every enabled search configuration once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := common.EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.Logger.Sync() }()

			app, err := common.NewApp(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			launcher := schedule.NewLauncher(app.Sink, app.Store, env.Logger)
			sum := launcher.Fire(cmd.Context(), schedule.TriggerManual)
			renderSummary(cmd.OutOrStdout(), sum)
			if sum.Err != nil {
				return sum.Err
			}
			if failed := sum.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d search configurations failed", failed, len(sum.Configs))
			}
			return nil
		},
	}
}

// renderSummary prints one row per search configuration.
func renderSummary(w io.Writer, sum ingest.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Search", "Outcome", "Scraped", "Created", "Skipped", "New sources", "Images", "Duration", "Error"})

	for _, c := range sum.Configs {
		errText := ""
		if c.Err != nil {
			errText = c.Err.Error()
		}
		t.AppendRow(table.Row{
			c.SearchTerm,
			string(c.Outcome),
			c.Scraped,
			c.Created,
			c.Skipped,
			c.SourcesCreated,
			fmt.Sprintf("%d/%d", c.Images, c.Images+c.ImageFailures),
			c.Duration.Round(msRound).String(),
			errText,
		})
	}

	t.AppendFooter(table.Row{
		"Total", "", "", sum.Created(), "", "", "",
		sum.Duration.Round(msRound).String(),
		fmt.Sprintf("run %s, started %s", sum.Trigger.RunID, humanize.Time(sum.StartedAt)),
	})
	t.Render()
}
