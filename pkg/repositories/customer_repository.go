package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const customersTable = "customers"

var (
	customerStruct        = database.NewStruct(new(models.Customer))
	customerSummaryStruct = database.NewStruct(new(models.CustomerSummary))
)

type CustomerRepository struct {
	*Repository
}

func NewCustomerRepository(db database.DB, logger ectologger.Logger, queryTimeout time.Duration) *CustomerRepository {
	return &CustomerRepository{
		Repository: NewRepository(db, logger, queryTimeout),
	}
}

// List returns up to limit customers in store order. A negative limit is
// dropped by the builder, so every customer is returned.
func (r *CustomerRepository) List(ctx context.Context, limit int) ([]models.CustomerSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.List")
	defer span.End()

	sb := customerSummaryStruct.SelectFrom(customersTable)
	sb.Limit(limit)

	query, args := sb.Build()
	ctx, done := r.begin(ctx, "customers.list")
	defer done()

	customers := []models.CustomerSummary{}
	if err := r.DB().SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"limit": limit,
		}).Error("failed to list customers")
		return nil, Internal("failed to list customers")
	}

	r.logger.WithContext(ctx).Debugf("Listed %d %s", len(customers), customersTable)
	return customers, nil
}

// GetByID returns the first customer row with the given id. Rows are
// append-only, so a re-ingested id can exist more than once.
func (r *CustomerRepository) GetByID(ctx context.Context, customerID string) (*models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.GetByID")
	defer span.End()

	sb := customerStruct.SelectFrom(customersTable)
	sb.Where(sb.Equal("customer_id", customerID))
	sb.Limit(1)

	query, args := sb.Build()
	ctx, done := r.begin(ctx, "customers.get")
	defer done()

	var customer models.Customer
	err := r.DB().GetContext(ctx, &customer, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Customer not found").AddMetaValue("customer_id", customerID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"customer_id": customerID,
		}).Error("failed to get customer by ID")
		return nil, Internal("failed to get customer")
	}

	return &customer, nil
}
