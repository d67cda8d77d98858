package models

import "time"

// Order is a cleaned order. Purchase timestamp and estimated delivery date are
// never missing once an order reaches the store.
type Order struct {
	OrderID               string     `db:"order_id" json:"order_id"`
	CustomerID            *string    `db:"customer_id" json:"customer_id"`
	Status                *string    `db:"order_status" json:"order_status"`
	PurchaseTimestamp     time.Time  `db:"order_purchase_timestamp" json:"order_purchase_timestamp"`
	ApprovedAt            *time.Time `db:"order_approved_at" json:"order_approved_at"`
	DeliveredTimestamp    *time.Time `db:"order_delivered_timestamp" json:"order_delivered_timestamp"`
	EstimatedDeliveryDate time.Time  `db:"order_estimated_delivery_date" json:"order_estimated_delivery_date"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderStatusCount is one row of the order status breakdown. Status is nil
// for orders loaded without one.
type OrderStatusCount struct {
	Status *string `db:"order_status" json:"order_status"`
	Count  int64   `db:"count" json:"count"`
}

type OrderItem struct {
	OrderID         string  `db:"order_id" json:"order_id"`
	ProductID       *string `db:"product_id" json:"product_id"`
	SellerID        *string `db:"seller_id" json:"seller_id"`
	Price           float64 `db:"price" json:"price"`
	ShippingCharges float64 `db:"shipping_charges" json:"shipping_charges"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Payment struct {
	OrderID      string  `db:"order_id" json:"order_id"`
	Sequential   *int64  `db:"payment_sequential" json:"payment_sequential"`
	Type         *string `db:"payment_type" json:"payment_type"`
	Installments int64   `db:"payment_installments" json:"payment_installments"`
	Value        float64 `db:"payment_value" json:"payment_value"`
}

func (Payment) TableName() string {
	return "payments"
}
