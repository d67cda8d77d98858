package repositories

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/metrics"
)

// DefaultLimit applies when a list request carries no limit.
const DefaultLimit = 20

// NotFound returns a 404 HTTP error with a descriptive message
func NotFound(format string, args ...any) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// Internal returns an opaque 500. The cause is logged by the caller, never sent.
func Internal(message string) error {
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}

// Repository holds what every repository shares: the pool, the logger and
// the per-statement timeout.
type Repository struct {
	db           database.DB
	logger       ectologger.Logger
	queryTimeout time.Duration
}

func NewRepository(db database.DB, logger ectologger.Logger, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, logger: logger, queryTimeout: queryTimeout}
}

func (r *Repository) DB() database.DB {
	return r.db
}

// begin bounds a statement by the query timeout and starts its latency
// measurement. The returned func must be called when the statement is done.
func (r *Repository) begin(ctx context.Context, operation string) (context.Context, func()) {
	start := time.Now()
	cancel := func() {}
	if r.queryTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
	}
	return ctx, func() {
		cancel()
		metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
