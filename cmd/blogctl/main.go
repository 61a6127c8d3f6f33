// Command blogctl runs operational tasks against the Inkwell database:
// schema migrations, demo seeding and role changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/middleware"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Operate the Inkwell blog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(), newSeedCommand(), newRoleCommand("promote"), newRoleCommand("demote"))
	return root
}

// withRuntime loads configuration, connects without touching the schema and
// runs fn with the live connections.
func withRuntime(ctx context.Context, fn func(context.Context, *config.Config, *bootstrap.Runtime) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, cfg, rt)
}
