package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "github.com/zhguchie-tours/frontend/configs"
	"github.com/zhguchie-tours/frontend/internal/application/services"
	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/network"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/storage"
)

// Opener builds the offline cache the commands operate on. The returned
// close func releases its connections.
type Opener func(ctx context.Context) (ports.OfflineCacheService, func() error, error)

// DefaultOpener wires the cache from the environment the same way the server does.
func DefaultOpener(ctx context.Context) (ports.OfflineCacheService, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := config.NewLogger(&cfg.Log)
	logger.SetOutput(os.Stderr)

	version, paths, err := cfg.Cache.ResolveManifest()
	if err != nil {
		return nil, nil, err
	}
	backend, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	origin, err := network.NewOriginFetcher(cfg.Origin.URL, cfg.Origin.Timeout, logger)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	svc := services.NewOfflineCacheService(backend.Store, origin, &services.OfflineCacheConfig{
		StorePrefix:      cfg.Cache.StorePrefix,
		Version:          version,
		Manifest:         offline.Manifest(paths),
		EntryTTL:         cfg.Cache.EntryTTL,
		CleanupOldStores: cfg.Cache.CleanupOldStores,
	}, logger)
	return svc, backend.Close, nil
}

// NewRootCommand returns the offlinectl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:   "offlinectl",
		Short: "Manage the offline asset cache of the Zhguchie Tours front-end.",
		Long: `offlinectl precaches the asset manifest into the versioned response store
and inspects or purges stores. It reads the same environment as the server
(STORE_BACKEND, CACHE_*, ORIGIN_URL, REDIS_*, DB_*).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout for the command")

	// run opens the cache, calls fn and closes the cache again.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		svc, closeFn, err := open(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if closeFn != nil {
				if err := closeFn(); err != nil {
					logrus.WithError(err).Warn("failed to close store")
				}
			}
		}()
		return fn(ctx, svc, cmd.OutOrStdout())
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Fetch every manifest path from the origin and store them all, or none",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error {
					report, err := svc.Install(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Installed %d entries into %s (%d unchanged) in %s\n",
						report.Entries, report.Store, report.Unchanged, report.Duration.Round(time.Millisecond))
					for _, name := range report.RemovedStore {
						fmt.Fprintf(out, "Removed old store %s\n", name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "manifest",
			Short: "Print the store name and precache manifest in effect",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error {
					st := svc.Status(ctx)
					fmt.Fprintf(out, "Store: %s\n", st.Store)
					for _, p := range st.Manifest {
						fmt.Fprintln(out, p)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the request keys held by the current store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error {
					keys, err := svc.Keys(ctx)
					if err != nil {
						return err
					}
					for _, k := range keys {
						fmt.Fprintln(out, k)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "stores",
			Short: "List every store in the backend",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error {
					names, err := svc.Stores(ctx)
					if err != nil {
						return err
					}
					current := svc.Status(ctx).Store
					for _, n := range names {
						if n == current {
							fmt.Fprintf(out, "%s (current)\n", n)
							continue
						}
						fmt.Fprintln(out, n)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge NAME",
			Short: "Delete a store and everything in it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc ports.OfflineCacheService, out io.Writer) error {
					if err := svc.DeleteStore(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted store %s\n", args[0])
					return nil
				})
			},
		},
	)
	return root
}

// Execute runs offlinectl with the environment-backed opener.
func Execute() {
	if err := NewRootCommand(DefaultOpener).Execute(); err != nil {
		os.Exit(1)
	}
}
