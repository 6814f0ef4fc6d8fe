package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akaere/whoisd/pkg/config"
	"github.com/akaere/whoisd/pkg/dnsq"
	"github.com/akaere/whoisd/pkg/embedded"
	"github.com/akaere/whoisd/pkg/handlers"
	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/maintain"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/registry"
	"github.com/akaere/whoisd/pkg/server"
	"github.com/akaere/whoisd/pkg/storage"
	"github.com/akaere/whoisd/pkg/trace"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
	"github.com/akaere/whoisd/pkg/upstream/globalping"
	"github.com/akaere/whoisd/pkg/upstream/whoisnet"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "whoisd",
	Short: "Akaere NetWorks WHOIS server",
	Long: `whoisd answers RFC 3912 WHOIS queries on port 43, backed by a local
registry mirror and a set of suffix-tagged query handlers covering
routing data, geolocation, DNS, certificates and assorted lookup
services.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"whoisd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (YAML)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WHOIS daemon",
	Long: `Start the TCP listener and all background maintenance loops.

The registry mirror is synced once at startup and then on a timer;
MANRS and PEN datasets refresh hourly when stale. The process shuts
down cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		logger := log.WithComponent("main")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registryStore, err := storage.Open(filepath.Join(cfg.Cache.Dir, "registry"))
		if err != nil {
			return fmt.Errorf("open registry store: %w", err)
		}
		defer registryStore.Close()

		// IANA referrals, MANRS and PEN all share one store; their key
		// prefixes do not overlap.
		dataStore, err := storage.Open(filepath.Join(cfg.Cache.Dir, "datasets"))
		if err != nil {
			return fmt.Errorf("open dataset store: %w", err)
		}
		defer dataStore.Close()

		httpClient := fetch.NewClient(15 * time.Second)
		whoisClient := whoisnet.NewClient(5*time.Second, 10*time.Second)
		ianaCache := whoisnet.NewIanaCache(dataStore, whoisClient)

		manrs := maintain.NewManrs(dataStore, httpClient)
		pen := maintain.NewPen(dataStore, httpClient)
		go maintain.New(manrs, pen).Run(ctx)

		loader := registry.NewLoader(registryStore)
		syncRegistry := func() {
			stats, err := loader.Sync(cfg.Registry.Path)
			if err != nil {
				logger.Error().Err(err).Str("path", cfg.Registry.Path).Msg("registry sync failed")
				return
			}
			logger.Info().
				Int("total", stats.Total).
				Int("added", stats.Added).
				Int("updated", stats.Updated).
				Int("removed", stats.Removed).
				Int("failed", stats.Failed).
				Msg("registry sync complete")
		}
		syncRegistry()
		go func() {
			ticker := time.NewTicker(cfg.Registry.SyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					syncRegistry()
				}
			}
		}()

		dispatcher := handlers.New(&handlers.Deps{
			Registry:   registryStore,
			PenStore:   dataStore,
			Manrs:      manrs,
			Whois:      whoisClient,
			Iana:       ianaCache,
			HTTP:       httpClient,
			DNS:        dnsq.NewResolver(),
			Tracer:     trace.NewRunner(cfg.Cache.Dir),
			Globalping: globalping.NewClient(httpClient, cfg.Keys.Globalping),
			Keys:       cfg.Keys,
			Recipes:    embedded.LoadRecipes("data/recipes.json"),
		})

		if cfg.Metrics.Addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
			go func() {
				logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener started")
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error().Err(err).Msg("metrics listener failed")
				}
			}()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsSrv.Shutdown(shutdownCtx)
			}()
		}

		logger.Info().Int("port", cfg.Server.Port).Str("version", Version).Msg("whoisd starting")
		if err := server.New(cfg.Server, dispatcher).ListenAndServe(ctx); err != nil {
			return fmt.Errorf("whois listener: %w", err)
		}
		logger.Info().Msg("whoisd stopped")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the registry mirror once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})

		store, err := storage.Open(filepath.Join(cfg.Cache.Dir, "registry"))
		if err != nil {
			return fmt.Errorf("open registry store: %w", err)
		}
		defer store.Close()

		stats, err := registry.NewLoader(store).Sync(cfg.Registry.Path)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d objects: %d added, %d updated, %d unchanged, %d removed, %d failed\n",
			stats.Total, stats.Added, stats.Updated, stats.Unchanged, stats.Removed, stats.Failed)
		return nil
	},
}
