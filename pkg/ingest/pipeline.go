// Package ingest loads the five e-commerce extracts into the store: read,
// clean, then append in foreign-key-safe order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// LockKey is the run lock shared by every ingest process against one store.
const LockKey = "ingest"

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("another ingestion run is in progress")

// Paths locates the five source files.
type Paths struct {
	Customers  string
	Orders     string
	OrderItems string
	Products   string
	Payments   string
}

// DefaultPaths returns dir/{Customers,Orders,OrderItems,Products,Payments}.csv.
func DefaultPaths(dir string) Paths {
	return Paths{
		Customers:  filepath.Join(dir, "Customers.csv"),
		Orders:     filepath.Join(dir, "Orders.csv"),
		OrderItems: filepath.Join(dir, "OrderItems.csv"),
		Products:   filepath.Join(dir, "Products.csv"),
		Payments:   filepath.Join(dir, "Payments.csv"),
	}
}

type Options struct {
	Paths   Paths
	DryRun  bool
	LockTTL time.Duration
}

// Store persists a cleaned dataset.
type Store interface {
	Load(ctx context.Context, ds *Dataset, report *Report) error
}

// Locker serializes runs.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// EventPublisher announces run lifecycle events.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, evt *kafka.RunEvent) error
}

type Pipeline struct {
	store  Store
	locker Locker
	events EventPublisher
	logger ectologger.Logger
}

func NewPipeline(store Store, logger ectologger.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger}
}

// WithLocker guards runs with locker. Without one, concurrent runs interleave.
func (p *Pipeline) WithLocker(locker Locker) *Pipeline {
	p.locker = locker
	return p
}

func (p *Pipeline) WithEvents(events EventPublisher) *Pipeline {
	p.events = events
	return p
}

// Run executes one ingestion run. The report is returned even on failure so
// the caller can log how far the run got.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	runID := uuid.New().String()
	ctx = appctx.SetRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID), attribute.Bool("dry_run", opts.DryRun))

	report := NewReport(runID)
	report.DryRun = opts.DryRun
	logger := p.logger.WithContext(ctx).WithField("run_id", runID)
	start := time.Now()

	p.publish(ctx, &kafka.RunEvent{Type: kafka.EventIngestStarted, RunID: runID, DryRun: opts.DryRun})
	logger.Infof("Ingestion run started (dry run: %t)", opts.DryRun)

	run := func() error { return p.run(ctx, opts, report) }
	var err error
	if p.locker != nil && !opts.DryRun {
		err = p.locker.WithLock(ctx, LockKey, opts.LockTTL, run)
		if errors.Is(err, redis.ErrLockNotAcquired) {
			err = ErrRunInProgress
		}
	} else {
		err = run()
	}

	metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion run failed")
		metrics.IngestRunsTotal.WithLabelValues("failed").Inc()
		p.publish(ctx, &kafka.RunEvent{
			Type:   kafka.EventIngestFailed,
			RunID:  runID,
			DryRun: opts.DryRun,
			Tables: report.Written(),
			Error:  err.Error(),
		})
		logger.WithError(err).Error("Ingestion run failed")
		return report, err
	}

	metrics.IngestRunsTotal.WithLabelValues("success").Inc()
	p.publish(ctx, &kafka.RunEvent{
		Type:   kafka.EventIngestCompleted,
		RunID:  runID,
		DryRun: opts.DryRun,
		Tables: report.Written(),
	})
	logger.WithField("duration", time.Since(start).String()).Info("Data ingestion completed successfully")
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, opts Options, report *Report) error {
	src, err := p.readSources(ctx, opts.Paths)
	if err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(ctx, "Pipeline.Clean")
	ds, err := Clean(src, report)
	span.End()
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	p.logReport(ctx, report)

	if opts.DryRun {
		p.logger.WithContext(ctx).Info("Dry run: nothing written")
		return nil
	}

	err = p.store.Load(ctx, ds, report)
	for table, t := range report.Tables {
		metrics.IngestRowsTotal.WithLabelValues(table, "written").Add(float64(t.Written))
	}
	return err
}

func (p *Pipeline) readSources(ctx context.Context, paths Paths) (*Sources, error) {
	ctx, span := tracing.StartSpan(ctx, "Pipeline.ReadSources")
	defer span.End()

	var src Sources
	for _, s := range []struct {
		path string
		dst  **Table
	}{
		{paths.Customers, &src.Customers},
		{paths.Orders, &src.Orders},
		{paths.OrderItems, &src.OrderItems},
		{paths.Products, &src.Products},
		{paths.Payments, &src.Payments},
	} {
		t, err := ReadFile(filepath.Base(s.path), s.path)
		if err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
		*s.dst = t
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"source":  s.path,
			"records": t.Len(),
		}).Debug("Source loaded")
	}
	return &src, nil
}

// logReport records data-quality drops. They are expected, so they are
// logged at info and counted, never raised.
func (p *Pipeline) logReport(ctx context.Context, report *Report) {
	for _, table := range LoadOrder {
		t := report.Table(table)
		metrics.IngestRowsTotal.WithLabelValues(table, "read").Add(float64(t.Read))
		metrics.IngestRowsTotal.WithLabelValues(table, "kept").Add(float64(t.Kept()))
		for reason, n := range t.Dropped {
			metrics.IngestRowsTotal.WithLabelValues(table, "dropped_"+reason).Add(float64(n))
		}
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"table":   table,
			"read":    t.Read,
			"kept":    t.Kept(),
			"dropped": t.Dropped,
		}).Infof("%s cleaned", table)
	}
}

func (p *Pipeline) publish(ctx context.Context, evt *kafka.RunEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishRunEvent(ctx, evt); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warnf("Failed to publish %s event", evt.Type)
	}
}
