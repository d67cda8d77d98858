package main

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// app holds what every sub-command needs once the environment is loaded.
type app struct {
	cfg            *config.Config
	logger         ectologger.Logger
	shutdownTracer func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fern",
		Short:         "E-commerce CSV ingestion pipeline and query API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	cmd.AddCommand(
		newServeCmd(a),
		newIngestCmd(a),
		newMigrateCmd(a),
		newResetCmd(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.PrettyLogs,
		AppName: cfg.AppName,
	})
	if err != nil {
		return err
	}
	a.logger = logger

	shutdown, err := tracing.Setup(ctx, cfg.AppName, cfg.OTLPEnabled, exporters.OTLPConfig{
		Endpoint: cfg.OTLPEndpoint,
		Protocol: cfg.OTLPProtocol,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	a.shutdownTracer = shutdown
	return nil
}

// close flushes pending spans. It runs after the command whether or not it
// failed.
func (a *app) close() {
	if a.shutdownTracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTracer(ctx); err != nil && a.logger != nil {
		a.logger.WithError(err).Warn("Failed to flush traces")
	}
}

func (a *app) openDatabase(ctx context.Context) (*database.DatabaseInstance, error) {
	return database.Open(ctx, database.Options{
		Driver:          a.cfg.DatabaseDriver,
		DSN:             a.cfg.DSN(),
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	}, a.logger)
}

func (a *app) migrations() *database.MigrationService {
	return database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
}
