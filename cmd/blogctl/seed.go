package main

import (
	"context"
	"fmt"
	"os"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const catalogFlag = "catalog"

var seedFlags = map[string]cobraflags.Flag{
	catalogFlag: &cobraflags.StringFlag{
		Name:  catalogFlag,
		Value: "",
		Usage: "YAML catalog of categories and articles (defaults to the built-in catalog)",
	},
}

func newSeedCommand() *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the article catalog and generate filler posts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(seedFlags[catalogFlag].GetString())
			if err != nil {
				return err
			}
			return withRuntime(c.Context(), func(ctx context.Context, _ *config.Config, rt *bootstrap.Runtime) error {
				res, err := seed.Run(ctx, rt.DB, catalog, opts)
				if err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}
				c.Printf("categories=%d catalog_posts=%d fake_posts=%d\n", res.Categories, res.CatalogPosts, res.FakePosts)
				return nil
			})
		},
	}

	cobraflags.RegisterMap(cmd, seedFlags)
	cmd.Flags().IntVar(&opts.NumPosts, "posts", 24, "number of generated filler posts")
	cmd.Flags().IntVar(&opts.MaxDays, "max-days", 90, "spread generated post dates over this many days")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible content (0 picks one)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "build posts without writing them")
	return cmd
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return seed.LoadCatalog(data)
}
