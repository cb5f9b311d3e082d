package store

import (
	"context"
	"errors"

	models "marketplace/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrConflict marks a transaction that lost a race (serialization
	// failure, deadlock, lock timeout). InTx retries it.
	ErrConflict = errors.New("transaction conflict")
	// ErrNotFound is returned by updates that matched no row.
	ErrNotFound = errors.New("row not found")
)

// Store opens units of work. Every call to InTx runs fn inside exactly one
// transaction: fn returning nil commits, anything else rolls back.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the set of row operations available inside a unit of work.
// Lock* methods hold the row until the transaction ends. Getters return
// (nil, nil) when the row does not exist.
type Tx interface {
	InsertPlan(ctx context.Context, p models.Plan) error
	GetPlan(ctx context.Context, planID int) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)

	InsertSeller(ctx context.Context, s models.Seller) error
	LockSeller(ctx context.Context, sellerID string) (*models.Seller, error)
	UpdateSeller(ctx context.Context, s models.Seller) error

	InsertProduct(ctx context.Context, p models.Product) error
	GetProduct(ctx context.Context, productID string) (*models.Product, error)

	InsertStock(ctx context.Context, s models.Stock) error
	LockStock(ctx context.Context, productID, sellerID string) (*models.Stock, error)
	UpdateStock(ctx context.Context, s models.Stock) error
	// ReservedAmount sums the amounts of (product, seller) lines held by
	// CREATED orders.
	ReservedAmount(ctx context.Context, productID, sellerID string) (int, error)

	InsertOrder(ctx context.Context, o models.Order) error
	LockOpenOrder(ctx context.Context, customerID string) (*models.Order, error)
	LockOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, o models.Order) error

	ListCartLines(ctx context.Context, orderID string) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, orderID, productID, sellerID string) (*models.CartLine, error)
	InsertCartLine(ctx context.Context, l models.CartLine) error
	UpdateCartLine(ctx context.Context, l models.CartLine) error
	DeleteCartLine(ctx context.Context, orderID, productID, sellerID string) error
	// OrderWeight is the sum of amount * product weight over the order's lines.
	OrderWeight(ctx context.Context, orderID string) (decimal.Decimal, error)
}
