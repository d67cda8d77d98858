package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
)

const pushJob = "fern-ingest"

type ingestOptions struct {
	dataDir    string
	customers  string
	orders     string
	orderItems string
	products   string
	payments   string
	dryRun     bool
	batchSize  int
}

func newIngestCmd(a *app) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the five source files into the database",
		Long: "Read Customers, Orders, OrderItems, Products and Payments, drop rows that fail\n" +
			"the data-quality rules and append the rest. Rows are appended: run `fern reset`\n" +
			"first to replace a previous load.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runIngest(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the source files (default $DATA_DIR)")
	flags.StringVar(&opts.customers, "customers", "", "Customers file path")
	flags.StringVar(&opts.orders, "orders", "", "Orders file path")
	flags.StringVar(&opts.orderItems, "order-items", "", "OrderItems file path")
	flags.StringVar(&opts.products, "products", "", "Products file path")
	flags.StringVar(&opts.payments, "payments", "", "Payments file path")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Read and clean only, write nothing")
	flags.IntVar(&opts.batchSize, "batch-size", 0, "Rows per INSERT statement (default $INGEST_BATCH_SIZE)")
	return cmd
}

func (a *app) runIngest(cmd *cobra.Command, opts ingestOptions) error {
	ctx := cmd.Context()
	cfg := a.cfg

	batchSize := cfg.IngestBatchSize
	if opts.batchSize > 0 {
		batchSize = opts.batchSize
	}

	var store ingest.Store
	if !opts.dryRun {
		db, err := a.openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		store = ingest.NewLoader(db, a.logger, batchSize)
	}

	pipeline := ingest.NewPipeline(store, a.logger)

	if cfg.RedisEnabled && !opts.dryRun {
		client, err := redis.NewClient(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, a.logger)
		if err != nil {
			return err
		}
		defer client.Close()
		pipeline.WithLocker(redis.NewLocker(client, "fern:lock:"))
	}

	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ParseConfig(cfg.KafkaBrokers, cfg.KafkaIngestTopic), a.logger)
		defer producer.Close()
		pipeline.WithEvents(producer)
	}

	_, err := pipeline.Run(ctx, ingest.Options{
		Paths:   resolvePaths(cfg, opts),
		DryRun:  opts.dryRun,
		LockTTL: cfg.IngestLockTTL,
	})

	if pushErr := metrics.Push(cfg.PushgatewayURL, pushJob); pushErr != nil {
		a.logger.WithError(pushErr).Warn("Failed to push ingestion metrics")
	}
	return err
}

// resolvePaths applies flags over config. Configured file names are relative
// to the data directory unless absolute; flag paths are used as given.
func resolvePaths(cfg *config.Config, opts ingestOptions) ingest.Paths {
	dir := cfg.DataDir
	if opts.dataDir != "" {
		dir = opts.dataDir
	}

	pick := func(flag, configured string) string {
		if flag != "" {
			return flag
		}
		if filepath.IsAbs(configured) {
			return configured
		}
		return filepath.Join(dir, configured)
	}

	return ingest.Paths{
		Customers:  pick(opts.customers, cfg.CustomersFile),
		Orders:     pick(opts.orders, cfg.OrdersFile),
		OrderItems: pick(opts.orderItems, cfg.OrderItemsFile),
		Products:   pick(opts.products, cfg.ProductsFile),
		Payments:   pick(opts.payments, cfg.PaymentsFile),
	}
}
