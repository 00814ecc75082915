// Command seed fills the configured database with demo blog content.
package main

import (
	"fmt"
	"os"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/seed"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := seed.DefaultOptions()

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the blog database with demo data",
		Long:         `Creates staff authors, readers, tags, posts, comments and likes. All seeded users share the password "password123".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			summary, err := seed.Seed(cmd.Context(), db, opts)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s\n", summary)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Staff, "staff", opts.Staff, "number of staff authors")
	flags.IntVar(&opts.Readers, "readers", opts.Readers, "number of reader accounts")
	flags.IntVar(&opts.Tags, "tags", opts.Tags, "number of tags")
	flags.IntVar(&opts.Posts, "posts", opts.Posts, "number of posts")
	flags.IntVar(&opts.MaxComments, "max-comments", opts.MaxComments, "maximum comments per post")
	flags.IntVar(&opts.MaxTags, "max-tags", opts.MaxTags, "maximum tags per post")
	flags.Int64Var(&opts.RandSeed, "rand-seed", 0, "random seed for reproducible data (0 = time based)")
	flags.BoolVar(&opts.Clean, "clean", opts.Clean, "delete existing blog data first")
	return cmd
}
