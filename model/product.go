package models

import "github.com/shopspring/decimal"

// Product is a catalog item. Weight is in kilograms.
type Product struct {
	ID     string          `json:"product_id"`
	Weight decimal.Decimal `json:"weight"`
}

// Stock is the inventory one seller holds for one product.
type Stock struct {
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`
	Count     int    `json:"stock_count"`
}
