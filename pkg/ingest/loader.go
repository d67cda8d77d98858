package ingest

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultBatchSize = 1000
	// postgres caps bind parameters per statement
	maxBindParams = 65535
)

// Loader appends a cleaned dataset to the store. Each table is written in
// its own transaction; a failure rolls back that table only and leaves
// earlier tables committed.
type Loader struct {
	db        database.DB
	logger    ectologger.Logger
	batchSize int
}

func NewLoader(db database.DB, logger ectologger.Logger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{db: db, logger: logger, batchSize: batchSize}
}

// Load writes every table in LoadOrder and records written counts in report.
func (l *Loader) Load(ctx context.Context, ds *Dataset, report *Report) error {
	for _, table := range LoadOrder {
		cols, rows := ds.Rows(table)
		written, err := l.insertTable(ctx, table, cols, rows)
		if err != nil {
			return fmt.Errorf("load %s: %w", table, err)
		}
		report.Table(table).Written = written
		l.logger.WithContext(ctx).WithFields(map[string]any{
			"table": table,
			"rows":  written,
		}).Infof("%s loaded", table)
	}
	return nil
}

func (l *Loader) insertTable(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "Loader.insertTable")
	defer span.End()

	if len(rows) == 0 {
		return 0, nil
	}

	batchSize := l.batchSize
	if limit := maxBindParams / len(cols); batchSize > limit {
		batchSize = limit
	}

	ctx, tx, err := l.db.GetTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		ib := database.NewInsertBuilder()
		ib.InsertInto(table).Cols(cols...)
		for _, row := range rows[start:end] {
			ib.Values(row...)
		}

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			l.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"table":       table,
				"batch_start": start,
				"batch_rows":  end - start,
			}).Error("failed to insert batch")
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Reset truncates every ingestion table. api_notes is left alone.
func (l *Loader) Reset(ctx context.Context) error {
	tables := make([]string, 0, len(LoadOrder))
	for i := len(LoadOrder) - 1; i >= 0; i-- {
		tables = append(tables, LoadOrder[i])
	}

	query, err := database.TruncateTables(tables...)
	if err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("reset ingestion tables: %w", err)
	}

	l.logger.WithContext(ctx).WithField("tables", tables).Info("Ingestion tables truncated")
	return nil
}

// Rows returns the insert columns and values for one destination table.
func (ds *Dataset) Rows(table string) ([]string, [][]any) {
	switch table {
	case TableCustomers:
		rows := make([][]any, len(ds.Customers))
		for i, c := range ds.Customers {
			rows[i] = []any{c.CustomerID, c.ZipCodePrefix, c.City, c.State}
		}
		return []string{"customer_id", "customer_zip_code_prefix", "customer_city", "customer_state"}, rows
	case TableSellers:
		rows := make([][]any, len(ds.Sellers))
		for i, s := range ds.Sellers {
			rows[i] = []any{s.SellerID}
		}
		return []string{"seller_id"}, rows
	case TableProducts:
		rows := make([][]any, len(ds.Products))
		for i, p := range ds.Products {
			rows[i] = []any{p.ProductID, p.CategoryName, p.WeightG, p.LengthCM, p.HeightCM, p.WidthCM}
		}
		return []string{"product_id", "product_category_name", "product_weight_g", "product_length_cm",
			"product_height_cm", "product_width_cm"}, rows
	case TableOrders:
		rows := make([][]any, len(ds.Orders))
		for i, o := range ds.Orders {
			rows[i] = []any{o.OrderID, o.CustomerID, o.Status, o.PurchaseTimestamp, o.ApprovedAt,
				o.DeliveredTimestamp, o.EstimatedDeliveryDate}
		}
		return []string{"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_approved_at",
			"order_delivered_timestamp", "order_estimated_delivery_date"}, rows
	case TableOrderItems:
		rows := make([][]any, len(ds.OrderItems))
		for i, item := range ds.OrderItems {
			rows[i] = []any{item.OrderID, item.ProductID, item.SellerID, item.Price, item.ShippingCharges}
		}
		return []string{"order_id", "product_id", "seller_id", "price", "shipping_charges"}, rows
	case TablePayments:
		rows := make([][]any, len(ds.Payments))
		for i, p := range ds.Payments {
			rows[i] = []any{p.OrderID, p.Sequential, p.Type, p.Installments, p.Value}
		}
		return []string{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}, rows
	default:
		return nil, nil
	}
}
