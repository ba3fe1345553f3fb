package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	route "github.com/neoarchive/neoarchive/internal/api/route"
	appctx "github.com/neoarchive/neoarchive/internal/app"
	"github.com/neoarchive/neoarchive/internal/config"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/remote"
)

func newRootCmd() *cobra.Command {
	var confPath string

	root := &cobra.Command{
		Use:           "neoarchive",
		Short:         "NeoArchive cache and sync server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&confPath, "config", "", "directory holding config.yaml and .env (default $NEOARCHIVE_CONFIG_PATH or ./config)")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(confPath)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		if err := logger.SetLevel(cfg.Misc.LogLevel); err != nil {
			logger.WithComponent("main").Warnf("invalid log level '%s', keeping current: %v", cfg.Misc.LogLevel, err)
		}
		logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel())
		return cfg, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Sync with the remote store and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one startup sync, persist the result and print the status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runSyncOnce(cmd.Context(), cfg, cmd)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the remote Postgres schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg.Remote)
		},
	}

	root.AddCommand(serve, syncCmd, migrate)
	// bare "neoarchive" serves
	root.RunE = serve.RunE
	return root
}

func runServe(cfg *config.Config) error {
	log := logger.WithComponent("main")
	log.Infof("App will run on port: %d", cfg.Server.Port)

	app, err := appctx.Build(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("cannot init app: %w", err)
	}
	defer app.Shutdown()

	if user := app.Initialize(app.BaseCtx); user != nil {
		log.Infof("resumed session for %s", user.Username)
	}
	app.StartBackground()

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app)
	srv := createGraceHttpServer(app.BaseCtx, "main-server", cfg.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runSyncOnce(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := appctx.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot init app: %w", err)
	}
	defer app.Shutdown()

	app.Initialize(ctx)
	if err := app.Cache.Flush(ctx); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(app.Sync.Status())
}

func runMigrate(ctx context.Context, cfg config.RemoteConfig) error {
	if cfg.Driver != "postgres" {
		return fmt.Errorf("migrate needs the postgres remote driver, got %q", cfg.Driver)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := remote.OpenPostgres(cfg.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		return err
	}
	logger.WithComponent("main").Info("remote schema is up to date")
	return nil
}
