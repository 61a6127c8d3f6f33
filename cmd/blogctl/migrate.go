package main

import (
	"context"
	"fmt"
	"strconv"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, inspect or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withRuntime(c.Context(), func(ctx context.Context, _ *config.Config, rt *bootstrap.Runtime) error {
				if err := database.RunMigrations(ctx, rt.DB); err != nil {
					return fmt.Errorf("sql migrations failed: %w", err)
				}
				c.Println("sql migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Run GORM AutoMigrate regardless of DB_SCHEMA_MODE",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withRuntime(c.Context(), func(ctx context.Context, cfg *config.Config, rt *bootstrap.Runtime) error {
				cfg.DBSchemaMode = database.SchemaModeAuto
				if err := database.ApplySchema(ctx, rt.DB, cfg); err != nil {
					return fmt.Errorf("auto schema apply failed: %w", err)
				}
				c.Println("automigrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withRuntime(c.Context(), func(ctx context.Context, cfg *config.Config, rt *bootstrap.Runtime) error {
				status, err := database.GetSchemaStatus(ctx, rt.DB, cfg)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}
				c.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
					status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
					len(status.AppliedVersions), len(status.PendingMigrations))
				for _, m := range status.PendingMigrations {
					c.Printf("pending: %s\n", m.String())
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [version]",
		Short: "Roll back one migration, the latest when no version is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			version := 0
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				version = v
			}
			return withRuntime(c.Context(), func(ctx context.Context, _ *config.Config, rt *bootstrap.Runtime) error {
				if version == 0 {
					reverted, err := database.RollbackLatest(ctx, rt.DB)
					if err != nil {
						return fmt.Errorf("rollback failed: %w", err)
					}
					if reverted == 0 {
						c.Println("nothing to roll back")
						return nil
					}
					version = reverted
				} else if err := database.RollbackMigration(ctx, rt.DB, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				c.Printf("rolled back migration %06d\n", version)
				return nil
			})
		},
	})

	return cmd
}
