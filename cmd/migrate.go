package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:blankimports // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       //nolint:blankimports // file source driver
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newsdesk/cmd/common"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

func migrateCommand() *cobra.Command {
	var (
		path  string
		steps int
	)

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := common.EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = env.Logger.Sync() }()

			if env.Config.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations need the %s driver, not %q", config.DriverPostgres, env.Config.Database.Driver)
			}

			m, err := migrate.New(path, env.Config.Database.MigrateURL())
			if err != nil {
				return fmt.Errorf("create migrate instance: %w", err)
			}
			defer func() { _, _ = m.Close() }()

			direction := args[0]
			switch {
			case direction == "up" && steps > 0:
				err = m.Steps(steps)
			case direction == "up":
				err = m.Up()
			case steps > 0:
				err = m.Steps(-steps)
			default:
				err = m.Down()
			}

			if errors.Is(err, migrate.ErrNoChange) {
				env.Logger.Info("No migrations to apply", logger.String("direction", direction))
				return nil
			}
			if err != nil {
				return fmt.Errorf("migration %s failed: %w", direction, err)
			}

			version, dirty, _ := m.Version()
			env.Logger.Info("Migration completed",
				logger.String("direction", direction),
				logger.Int("version", int(version)),
				logger.Bool("dirty", dirty),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "file://migrations", "migration source URL")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply or roll back (0 means all)")
	return cmd
}
