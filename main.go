package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stackfast/config"
	"stackfast/internal/auth"
	"stackfast/internal/catalog"
	"stackfast/logging"
)

type rootOptions struct {
	configPath string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		logrus.Fatalf("Command failed: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{configPath: "config.yaml"}

	root := &cobra.Command{
		Use:           "stackfast",
		Short:         "Recommend a development tool stack for a project idea",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to the configuration file")

	root.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// loadConfig reads the configuration and initializes logging from it.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logging.InitLogger(cfg.Logging)
	return cfg, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			app, err := newApplication(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.server.Run(ctx)
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		dir   string
		prune bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load YAML tool profiles into the catalog store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Catalog.SeedDir
			}

			store, err := catalog.OpenStore(cfg.Catalog.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := catalog.Seed(cmd.Context(), store, catalog.NewSeedLoader(cfg.Catalog), dir, prune)
			if err != nil {
				return err
			}
			total, err := store.Count()
			if err != nil {
				return err
			}
			logrus.Infof("Seeded %d tools from %s, pruned %d (%d in catalog)", res.Written, dir, res.Pruned, total)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of seed files (defaults to catalog.seed_dir)")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete stored tools that no seed file defines")
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.RequireAuthSecret(); err != nil {
				return err
			}
			verifier, err := auth.NewVerifier(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := verifier.Issue(args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name stored in the token")
	return cmd
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
