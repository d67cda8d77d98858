package repositories

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const ordersTable = "orders"

type OrderRepository struct {
	*Repository
}

func NewOrderRepository(db database.DB, logger ectologger.Logger, queryTimeout time.Duration) *OrderRepository {
	return &OrderRepository{
		Repository: NewRepository(db, logger, queryTimeout),
	}
}

// StatusCounts groups orders by status, largest group first. Ties fall back
// to status order so responses are stable.
func (r *OrderRepository) StatusCounts(ctx context.Context) ([]models.OrderStatusCount, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.StatusCounts")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("order_status", "COUNT(*) AS count").
		From(ordersTable).
		GroupBy("order_status").
		OrderBy("count DESC", "order_status ASC")

	query, args := sb.Build()
	ctx, done := r.begin(ctx, "orders.status_counts")
	defer done()

	counts := []models.OrderStatusCount{}
	if err := r.DB().SelectContext(ctx, &counts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count orders by status")
		return nil, Internal("failed to count orders by status")
	}

	return counts, nil
}
