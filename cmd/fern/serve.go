package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/repositories"
	"github.com/Ramsey-B/fern/pkg/startup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	var (
		db          *database.DatabaseInstance
		redisClient *redis.Client
	)

	deps := startup.NewStartup(a.logger, cfg.StartupMaxAttempts)
	deps.AddDependency(startup.Func{
		Name: "database",
		StartFunc: func(ctx context.Context) error {
			var err error
			db, err = a.openDatabase(ctx)
			return err
		},
		StopFunc: func(context.Context) error {
			return db.Close()
		},
	})
	if cfg.DatabaseMigrateOnStart {
		deps.AddDependency(startup.Func{
			Name:     "migrations",
			Requires: []string{"database"},
			StartFunc: func(context.Context) error {
				return a.migrations().Up(db.SQLDB())
			},
		})
	}
	if cfg.RedisEnabled {
		deps.AddDependency(startup.Func{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				var err error
				redisClient, err = redis.NewClient(ctx, redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, a.logger)
				return err
			},
			StopFunc: func(context.Context) error {
				return redisClient.Close()
			},
		})
	}

	// Stop only touches what started, so it also cleans up a failed Start.
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := deps.Stop(stopCtx); err != nil {
			a.logger.WithError(err).Warn("Failed to stop dependencies")
		}
	}()
	if err := deps.Start(ctx); err != nil {
		return err
	}

	checker := health.NewChecker(version)
	checker.AddCheck("database", db, true)
	if redisClient != nil {
		checker.AddCheck("redis", redisClient, false)
	}

	srv := server.New(cfg, a.logger, server.Repositories{
		Customers: repositories.NewCustomerRepository(db, a.logger, cfg.DatabaseQueryTimeout),
		Orders:    repositories.NewOrderRepository(db, a.logger, cfg.DatabaseQueryTimeout),
		Notes:     repositories.NewNoteRepository(db, a.logger, cfg.DatabaseQueryTimeout),
	}, checker)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}
