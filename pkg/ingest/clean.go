package ingest

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Sources are the five raw inputs of a run.
type Sources struct {
	Customers  *Table
	Orders     *Table
	OrderItems *Table
	Products   *Table
	Payments   *Table
}

// Dataset is the cleaned, foreign-key-consistent output of Clean.
type Dataset struct {
	Customers  []models.Customer
	Sellers    []models.Seller
	Products   []models.Product
	Orders     []models.Order
	OrderItems []models.OrderItem
	Payments   []models.Payment
}

// Clean deduplicates, validates and filters the sources. Rows that fail a
// data-quality rule are dropped and counted in report. An error means the
// input itself is unusable: a required column is absent or a numeric cell
// holds text.
func Clean(src *Sources, report *Report) (*Dataset, error) {
	var (
		out Dataset
		err error
	)

	if out.Products, err = cleanProducts(src.Products, report.Table(TableProducts)); err != nil {
		return nil, err
	}
	if out.Customers, err = cleanCustomers(src.Customers, report.Table(TableCustomers)); err != nil {
		return nil, err
	}
	if out.Orders, err = cleanOrders(src.Orders, report.Table(TableOrders)); err != nil {
		return nil, err
	}

	validOrders := make(map[string]struct{}, len(out.Orders))
	for _, o := range out.Orders {
		validOrders[o.OrderID] = struct{}{}
	}

	if out.OrderItems, err = cleanOrderItems(src.OrderItems, validOrders, report.Table(TableOrderItems)); err != nil {
		return nil, err
	}
	if out.Payments, err = cleanPayments(src.Payments, validOrders, report.Table(TablePayments)); err != nil {
		return nil, err
	}
	out.Sellers = deriveSellers(out.OrderItems, report.Table(TableSellers))

	return &out, nil
}

// keyFilter keeps the first row per natural key and drops rows without one.
type keyFilter struct {
	seen   map[string]struct{}
	report *TableReport
}

func newKeyFilter(report *TableReport) *keyFilter {
	return &keyFilter{seen: make(map[string]struct{}), report: report}
}

func (f *keyFilter) keep(key string, present bool) bool {
	if !present {
		f.report.drop(ReasonMissingKey)
		return false
	}
	if _, dup := f.seen[key]; dup {
		f.report.drop(ReasonDuplicate)
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

func cleanProducts(t *Table, report *TableReport) ([]models.Product, error) {
	idCol, err := t.Column("product_id")
	if err != nil {
		return nil, err
	}
	categoryCol := t.OptionalColumn("product_category_name")
	weightCol := t.OptionalColumn("product_weight_g")
	lengthCol := t.OptionalColumn("product_length_cm")
	heightCol := t.OptionalColumn("product_height_cm")
	widthCol := t.OptionalColumn("product_width_cm")

	report.Read = t.Len()
	keys := newKeyFilter(report)
	products := make([]models.Product, 0, t.Len())
	for row := range t.Records {
		id, ok := t.Value(row, idCol)
		if !keys.keep(id, ok) {
			continue
		}

		p := models.Product{ProductID: id, CategoryName: optionalString(t, row, categoryCol)}
		for _, field := range []struct {
			col int
			dst **float64
		}{
			{weightCol, &p.WeightG},
			{lengthCol, &p.LengthCM},
			{heightCol, &p.HeightCM},
			{widthCol, &p.WidthCM},
		} {
			v, present, err := floatValue(t, row, field.col)
			if err != nil {
				return nil, err
			}
			if present {
				*field.dst = &v
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func cleanCustomers(t *Table, report *TableReport) ([]models.Customer, error) {
	idCol, err := t.Column("customer_id")
	if err != nil {
		return nil, err
	}
	zipCol := t.OptionalColumn("customer_zip_code_prefix")
	cityCol := t.OptionalColumn("customer_city")
	stateCol := t.OptionalColumn("customer_state")

	report.Read = t.Len()
	keys := newKeyFilter(report)
	customers := make([]models.Customer, 0, t.Len())
	for row := range t.Records {
		id, ok := t.Value(row, idCol)
		if !keys.keep(id, ok) {
			continue
		}
		customers = append(customers, models.Customer{
			CustomerID:    id,
			ZipCodePrefix: optionalString(t, row, zipCol),
			City:          optionalString(t, row, cityCol),
			State:         optionalString(t, row, stateCol),
		})
	}
	return customers, nil
}

// cleanOrders deduplicates first, then drops orders whose purchase timestamp
// or estimated delivery date is missing, then parses the dates and drops
// orders where either critical date did not parse. A duplicate is dropped
// even when the first occurrence is later dropped for its dates.
func cleanOrders(t *Table, report *TableReport) ([]models.Order, error) {
	cols, err := columns(t, "order_id", "order_purchase_timestamp", "order_approved_at",
		"order_delivered_timestamp", "order_estimated_delivery_date")
	if err != nil {
		return nil, err
	}
	idCol, purchaseCol, approvedCol, deliveredCol, estimatedCol := cols[0], cols[1], cols[2], cols[3], cols[4]
	customerCol := t.OptionalColumn("customer_id")
	statusCol := t.OptionalColumn("order_status")

	report.Read = t.Len()
	keys := newKeyFilter(report)
	orders := make([]models.Order, 0, t.Len())
	for row := range t.Records {
		id, ok := t.Value(row, idCol)
		if !keys.keep(id, ok) {
			continue
		}

		rawPurchase, hasPurchase := t.Value(row, purchaseCol)
		rawEstimated, hasEstimated := t.Value(row, estimatedCol)
		if !hasPurchase || !hasEstimated {
			report.drop(ReasonMissingDate)
			continue
		}

		purchase, purchaseOK := ParseTimestamp(rawPurchase)
		estimated, estimatedOK := ParseDate(rawEstimated)
		if !purchaseOK || !estimatedOK {
			report.drop(ReasonUnparseableDate)
			continue
		}

		orders = append(orders, models.Order{
			OrderID:               id,
			CustomerID:            optionalString(t, row, customerCol),
			Status:                optionalString(t, row, statusCol),
			PurchaseTimestamp:     purchase,
			ApprovedAt:            optionalTimestamp(t, row, approvedCol),
			DeliveredTimestamp:    optionalTimestamp(t, row, deliveredCol),
			EstimatedDeliveryDate: estimated,
		})
	}
	return orders, nil
}

// cleanOrderItems keeps items of valid orders with a present, non-negative
// price and shipping charge. Amounts are parsed before any filter so a
// malformed amount fails the run wherever it sits.
func cleanOrderItems(t *Table, validOrders map[string]struct{}, report *TableReport) ([]models.OrderItem, error) {
	cols, err := columns(t, "order_id", "seller_id", "price", "shipping_charges")
	if err != nil {
		return nil, err
	}
	orderCol, sellerCol, priceCol, shippingCol := cols[0], cols[1], cols[2], cols[3]
	productCol := t.OptionalColumn("product_id")

	report.Read = t.Len()
	items := make([]models.OrderItem, 0, t.Len())
	for row := range t.Records {
		price, hasPrice, err := floatValue(t, row, priceCol)
		if err != nil {
			return nil, err
		}
		shipping, hasShipping, err := floatValue(t, row, shippingCol)
		if err != nil {
			return nil, err
		}

		orderID, ok := t.Value(row, orderCol)
		if _, valid := validOrders[orderID]; !ok || !valid {
			report.drop(ReasonUnknownOrder)
			continue
		}
		if !hasPrice || !hasShipping || price < 0 || shipping < 0 {
			report.drop(ReasonInvalidAmount)
			continue
		}

		items = append(items, models.OrderItem{
			OrderID:         orderID,
			ProductID:       optionalString(t, row, productCol),
			SellerID:        optionalString(t, row, sellerCol),
			Price:           price,
			ShippingCharges: shipping,
		})
	}
	return items, nil
}

func cleanPayments(t *Table, validOrders map[string]struct{}, report *TableReport) ([]models.Payment, error) {
	cols, err := columns(t, "order_id", "payment_installments", "payment_value")
	if err != nil {
		return nil, err
	}
	orderCol, installmentsCol, valueCol := cols[0], cols[1], cols[2]
	sequentialCol := t.OptionalColumn("payment_sequential")
	typeCol := t.OptionalColumn("payment_type")

	report.Read = t.Len()
	payments := make([]models.Payment, 0, t.Len())
	for row := range t.Records {
		installments, hasInstallments, err := intValue(t, row, installmentsCol)
		if err != nil {
			return nil, err
		}
		value, hasValue, err := floatValue(t, row, valueCol)
		if err != nil {
			return nil, err
		}
		sequential, hasSequential, err := intValue(t, row, sequentialCol)
		if err != nil {
			return nil, err
		}

		orderID, ok := t.Value(row, orderCol)
		if _, valid := validOrders[orderID]; !ok || !valid {
			report.drop(ReasonUnknownOrder)
			continue
		}
		if !hasInstallments || installments < 1 {
			report.drop(ReasonInvalidInstallments)
			continue
		}
		if !hasValue || value < 0 {
			report.drop(ReasonInvalidAmount)
			continue
		}

		p := models.Payment{
			OrderID:      orderID,
			Type:         optionalString(t, row, typeCol),
			Installments: installments,
			Value:        value,
		}
		if hasSequential {
			p.Sequential = &sequential
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// deriveSellers returns the distinct seller ids of items in first-seen order.
// Items without a seller id contribute no seller.
func deriveSellers(items []models.OrderItem, report *TableReport) []models.Seller {
	report.Read = len(items)
	keys := newKeyFilter(report)
	sellers := make([]models.Seller, 0)
	for _, item := range items {
		id := ""
		if item.SellerID != nil {
			id = *item.SellerID
		}
		if keys.keep(id, id != "") {
			sellers = append(sellers, models.Seller{SellerID: id})
		}
	}
	return sellers
}

func columns(t *Table, names ...string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

func optionalString(t *Table, row, col int) *string {
	v, ok := t.Value(row, col)
	if !ok {
		return nil
	}
	return &v
}

func optionalTimestamp(t *Table, row, col int) *time.Time {
	v, ok := t.Value(row, col)
	if !ok {
		return nil
	}
	ts, ok := ParseTimestamp(v)
	if !ok {
		return nil
	}
	return &ts
}

// floatValue parses a numeric cell. A missing cell is not an error; text
// that is not a number is.
func floatValue(t *Table, row, col int) (float64, bool, error) {
	v, ok := t.Value(row, col)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, cellError(t, row, col, v, "a number")
	}
	if math.IsNaN(f) {
		return 0, false, nil
	}
	return f, true, nil
}

// maxInt64Float is 2^63. float64(math.MaxInt64) rounds up to it, so the
// bound has to be exclusive.
const maxInt64Float = float64(1 << 63)

// intValue parses an integer cell. Integral floats such as "3.0" are
// accepted because spreadsheet exports write them.
func intValue(t *Table, row, col int) (int64, bool, error) {
	f, ok, err := floatValue(t, row, col)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || f >= maxInt64Float || f < math.MinInt64 {
		v, _ := t.Value(row, col)
		return 0, false, cellError(t, row, col, v, "an integer")
	}
	return int64(f), true, nil
}

// cellError numbers records from 1, not counting the header.
func cellError(t *Table, row, col int, value, want string) error {
	return fmt.Errorf("%s record %d: column %q value %q is not %s", t.Name, row+1, t.Header[col], value, want)
}
