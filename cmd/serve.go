package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/api"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/news"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/schedule"
)

func serveCommand() *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the news API, optionally running the scheduler in-process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := common.EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.Logger.Sync() }()
			cfg := env.Config

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx, env)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if !cfg.App.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			router := api.NewRouter(api.Deps{
				News:     news.NewService(app.Store),
				Configs:  app.Store,
				Gatherer: app.Registry,
				Logger:   env.Logger.With(logger.Component("api")),
			})
			if cfg.Storage.Driver == config.StorageDisk && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
				router.Static(cfg.Storage.PublicBaseURL, cfg.Storage.Dir)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return api.NewServer(cfg.Server, router, env.Logger).Run(gctx)
			})

			if withScheduler {
				sched, schedErr := schedule.New(schedule.Config{
					Spec:       cfg.Scheduler.Cron,
					RunOnStart: cfg.Scheduler.RunOnStart,
				}, app.Sink, app.Store, env.Logger)
				if schedErr != nil {
					return schedErr
				}
				g.Go(func() error { return sched.Run(gctx) })
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run ingestion on the cron schedule")
	return cmd
}
