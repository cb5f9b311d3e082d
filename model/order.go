package models

import "time"

// OrderStatus is the lifecycle state of an order. It only ever advances
// CREATED -> RECEIVED -> SHIPPED.
type OrderStatus string

const (
	StatusCreated  OrderStatus = "CREATED"
	StatusReceived OrderStatus = "RECEIVED"
	StatusShipped  OrderStatus = "SHIPPED"
)

// Next returns the status that follows s, or false when s is terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusCreated:
		return StatusReceived, true
	case StatusReceived:
		return StatusShipped, true
	}
	return "", false
}

// Order is a customer's order. A CREATED order is the customer's open cart.
type Order struct {
	ID           string      `json:"order_id"`
	CustomerID   string      `json:"customer_id"`
	Status       OrderStatus `json:"status"`
	OrderTime    *time.Time  `json:"order_time,omitempty"`
	ShippingTime *time.Time  `json:"shipping_time,omitempty"`
	Lines        []CartLine  `json:"lines,omitempty"`
}

// CartLine is one (product, seller, amount) entry of an order.
type CartLine struct {
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	SellerID  string    `json:"seller_id"`
	Amount    int       `json:"amount"`
	AddedAt   time.Time `json:"added_at"`
}
