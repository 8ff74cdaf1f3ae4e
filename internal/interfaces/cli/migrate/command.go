package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tollgate/internal/infrastructure/database"
	"github.com/orris-inc/tollgate/internal/infrastructure/migration"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

var (
	flags bootstrap.Flags
	name  string
	dir   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&flags.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create an empty SQL migration file. Create one per dialect directory.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "./internal/infrastructure/migration/scripts/mysql", "Directory to write the migration into")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// gooseStrategy returns the versioned strategy for the configured driver.
// The sqlite driver uses gorm auto-migration and has no versions.
func gooseStrategy(driver string, log logger.Interface) (*migration.GooseStrategy, error) {
	strategy, err := migration.NewStrategy(driver, log)
	if err != nil {
		return nil, err
	}
	goose, ok := strategy.(*migration.GooseStrategy)
	if !ok {
		return nil, fmt.Errorf("%s migrations are not versioned; only up is supported", driver)
	}
	return goose, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", flags.Env, "driver", cfg.Database.Driver)

	strategy, err := migration.NewStrategy(cfg.Database.Driver, log)
	if err != nil {
		return err
	}
	if err := strategy.Migrate(database.Get()); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully", "strategy", strategy.GetName())
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", flags.Env, "steps", steps)

	strategy, err := gooseStrategy(cfg.Database.Driver, log)
	if err != nil {
		return err
	}
	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	strategy, err := gooseStrategy(cfg.Database.Driver, log)
	if err != nil {
		return err
	}

	version, err := strategy.GetVersion(database.Get())
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	scripts, err := strategy.Scripts()
	if err != nil {
		return fmt.Errorf("failed to list migration scripts: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", flags.Env)
	fmt.Fprintf(out, "  Driver:          %s\n", cfg.Database.Driver)
	fmt.Fprintf(out, "  Current Version: %d\n", version)
	fmt.Fprintf(out, "  Embedded Files:  %d\n", len(scripts))

	if err := strategy.Status(database.Get()); err != nil {
		log.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	_, log, err := bootstrap.Init(flags)
	if err != nil {
		return err
	}

	log.Infow("creating new migration", "name", name, "dir", dir)

	if err := migration.Create(dir, name); err != nil {
		log.Errorw("failed to create migration", "error", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created in %s\n", name, dir)
	return nil
}
