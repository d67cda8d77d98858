package models

type Product struct {
	ProductID    string   `db:"product_id" json:"product_id"`
	CategoryName *string  `db:"product_category_name" json:"product_category_name"`
	WeightG      *float64 `db:"product_weight_g" json:"product_weight_g"`
	LengthCM     *float64 `db:"product_length_cm" json:"product_length_cm"`
	HeightCM     *float64 `db:"product_height_cm" json:"product_height_cm"`
	WidthCM      *float64 `db:"product_width_cm" json:"product_width_cm"`
}

func (Product) TableName() string {
	return "products"
}

// Seller has no source file; sellers are the distinct seller ids of the
// loaded order items.
type Seller struct {
	SellerID string `db:"seller_id" json:"seller_id"`
}

func (Seller) TableName() string {
	return "sellers"
}
