package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/schedule"
)

func scheduleCommand() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := common.EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx, env)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			sched, err := schedule.New(schedule.Config{
				Spec:       env.Config.Scheduler.Cron,
				RunOnStart: runNow || env.Config.Scheduler.RunOnStart,
			}, app.Sink, app.Store, env.Logger)
			if err != nil {
				return err
			}
			return sched.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}
