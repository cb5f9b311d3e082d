package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	models "marketplace/model"

	"github.com/shopspring/decimal"
)

const orderColumns = `order_id, customer_id, status, order_time, shipping_time`

func (t *sqlTx) scanOrder(row *sql.Row) (*models.Order, error) {
	var (
		o                models.Order
		status           string
		ordered, shipped sql.NullTime
	)
	err := row.Scan(&o.ID, &o.CustomerID, &status, &ordered, &shipped)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.OrderTime = timePtr(ordered)
	o.ShippingTime = timePtr(shipped)
	return &o, nil
}

// InsertOrder creates an order row. A second open order for the same
// customer violates orders_one_open_cart; that is reported as ErrConflict
// so the unit of work is retried and finds the winner's order.
func (t *sqlTx) InsertOrder(ctx context.Context, o models.Order) error {
	err := t.insert(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, string(o.Status), nullTime(o.OrderTime), nullTime(o.ShippingTime))
	if errors.Is(err, ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (t *sqlTx) LockOpenOrder(ctx context.Context, customerID string) (*models.Order, error) {
	return t.scanOrder(t.queryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = ? AND status = 'CREATED'`+t.d.forUpdate,
		customerID))
}

func (t *sqlTx) LockOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return t.scanOrder(t.queryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`+t.d.forUpdate,
		orderID))
}

func (t *sqlTx) UpdateOrder(ctx context.Context, o models.Order) error {
	return t.update(ctx,
		`UPDATE orders SET status = ?, order_time = ?, shipping_time = ? WHERE order_id = ?`,
		string(o.Status), nullTime(o.OrderTime), nullTime(o.ShippingTime), o.ID)
}

// ListCartLines returns the order's lines in the order they were added.
func (t *sqlTx) ListCartLines(ctx context.Context, orderID string) ([]models.CartLine, error) {
	rows, err := t.query(ctx, `
		SELECT order_id, product_id, seller_id, amount, added_at
		FROM shopping_carts
		WHERE order_id = ?
		ORDER BY added_at, product_id, seller_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.CartLine{}
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.SellerID, &l.Amount, &l.AddedAt); err != nil {
			return nil, err
		}
		l.AddedAt = l.AddedAt.UTC()
		out = append(out, l)
	}
	return out, t.d.wrap(rows.Err())
}

func (t *sqlTx) GetCartLine(ctx context.Context, orderID, productID, sellerID string) (*models.CartLine, error) {
	var l models.CartLine
	err := t.queryRow(ctx, `
		SELECT order_id, product_id, seller_id, amount, added_at
		FROM shopping_carts
		WHERE order_id = ? AND product_id = ? AND seller_id = ?`,
		orderID, productID, sellerID).
		Scan(&l.OrderID, &l.ProductID, &l.SellerID, &l.Amount, &l.AddedAt)
	if ok, err := t.scanErr(err); !ok {
		return nil, err
	}
	l.AddedAt = l.AddedAt.UTC()
	return &l, nil
}

func (t *sqlTx) InsertCartLine(ctx context.Context, l models.CartLine) error {
	return t.insert(ctx, `
		INSERT INTO shopping_carts (order_id, product_id, seller_id, amount, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.OrderID, l.ProductID, l.SellerID, l.Amount, l.AddedAt.UTC())
}

func (t *sqlTx) UpdateCartLine(ctx context.Context, l models.CartLine) error {
	return t.update(ctx, `
		UPDATE shopping_carts SET amount = ?
		WHERE order_id = ? AND product_id = ? AND seller_id = ?`,
		l.Amount, l.OrderID, l.ProductID, l.SellerID)
}

func (t *sqlTx) DeleteCartLine(ctx context.Context, orderID, productID, sellerID string) error {
	return t.update(ctx,
		`DELETE FROM shopping_carts WHERE order_id = ? AND product_id = ? AND seller_id = ?`,
		orderID, productID, sellerID)
}

// OrderWeight sums in decimal on the client so every dialect rounds the
// same way.
func (t *sqlTx) OrderWeight(ctx context.Context, orderID string) (decimal.Decimal, error) {
	rows, err := t.query(ctx, `
		SELECT c.amount, p.weight
		FROM shopping_carts c
		JOIN products p ON p.product_id = c.product_id
		WHERE c.order_id = ?`, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var (
			amount int64
			weight decimal.Decimal
		)
		if err := rows.Scan(&amount, &weight); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(weight.Mul(decimal.NewFromInt(amount)))
	}
	return total, t.d.wrap(rows.Err())
}
