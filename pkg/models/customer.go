package models

// Customer is a row of the customers table. Zip prefixes are text so leading
// zeros survive.
type Customer struct {
	CustomerID    string  `db:"customer_id" json:"customer_id"`
	ZipCodePrefix *string `db:"customer_zip_code_prefix" json:"customer_zip_code_prefix"`
	City          *string `db:"customer_city" json:"customer_city"`
	State         *string `db:"customer_state" json:"customer_state"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerSummary is the list projection of a customer.
type CustomerSummary struct {
	CustomerID string  `db:"customer_id" json:"customer_id"`
	City       *string `db:"customer_city" json:"customer_city"`
	State      *string `db:"customer_state" json:"customer_state"`
}
