package store

import (
	"context"
	"errors"

	models "marketplace/model"
)

// ErrNegativeStock is returned when a stock row would drop below zero.
var ErrNegativeStock = errors.New("stock cannot be negative")

func (t *sqlTx) InsertProduct(ctx context.Context, p models.Product) error {
	return t.insert(ctx, `INSERT INTO products (product_id, weight) VALUES (?, ?)`, p.ID, p.Weight)
}

func (t *sqlTx) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var p models.Product
	err := t.queryRow(ctx, `SELECT product_id, weight FROM products WHERE product_id = ?`, productID).
		Scan(&p.ID, &p.Weight)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	return &p, nil
}

func (t *sqlTx) InsertStock(ctx context.Context, s models.Stock) error {
	if s.Count < 0 {
		return ErrNegativeStock
	}
	return t.insert(ctx,
		`INSERT INTO stocks (product_id, seller_id, stock_count) VALUES (?, ?, ?)`,
		s.ProductID, s.SellerID, s.Count)
}

// LockStock reads a stock row and holds it for the rest of the transaction.
func (t *sqlTx) LockStock(ctx context.Context, productID, sellerID string) (*models.Stock, error) {
	var s models.Stock
	err := t.queryRow(ctx,
		`SELECT product_id, seller_id, stock_count FROM stocks WHERE product_id = ? AND seller_id = ?`+t.d.forUpdate,
		productID, sellerID).
		Scan(&s.ProductID, &s.SellerID, &s.Count)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	return &s, nil
}

// UpdateStock sets the absolute stock count of a row.
func (t *sqlTx) UpdateStock(ctx context.Context, s models.Stock) error {
	if s.Count < 0 {
		return ErrNegativeStock
	}
	return t.update(ctx,
		`UPDATE stocks SET stock_count = ? WHERE product_id = ? AND seller_id = ?`,
		s.Count, s.ProductID, s.SellerID)
}

func (t *sqlTx) ReservedAmount(ctx context.Context, productID, sellerID string) (int, error) {
	var reserved int64
	err := t.queryRow(ctx, `
		SELECT COALESCE(SUM(c.amount), 0)
		FROM shopping_carts c
		JOIN orders o ON o.order_id = c.order_id
		WHERE c.product_id = ? AND c.seller_id = ? AND o.status = 'CREATED'`,
		productID, sellerID).Scan(&reserved)
	if err != nil {
		return 0, t.d.wrap(err)
	}
	return int(reserved), nil
}
