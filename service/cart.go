package service

import (
	"context"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"

	"github.com/shopspring/decimal"
)

// MaxCartWeight is the heaviest an open order may get, in kilograms.
var MaxCartWeight = decimal.NewFromInt(15)

// ShowCart lists the customer's open order in insertion order.
func (s *Service) ShowCart(ctx context.Context, customerID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.run(ctx, "show_cart", func(ctx context.Context, tx store.Tx) error {
		order, err := tx.LockOpenOrder(ctx, customerID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNoOpenCart
		}
		lines, err = tx.ListCartLines(ctx, order.ID)
		return err
	})
	return lines, err
}

// ChangeCart adds delta units of (productID, sellerID) to the customer's
// open order, or removes them when delta is negative. The open order is
// created on the first addition.
func (s *Service) ChangeCart(ctx context.Context, customerID, productID, sellerID string, delta int) error {
	err := s.run(ctx, "change_cart", func(ctx context.Context, tx store.Tx) error {
		order, err := tx.LockOpenOrder(ctx, customerID)
		if err != nil {
			return err
		}
		if order == nil {
			if delta <= 0 {
				return ErrNotFound
			}
			order = &models.Order{ID: s.newID(), CustomerID: customerID, Status: models.StatusCreated}
			if err := tx.InsertOrder(ctx, *order); err != nil {
				return err
			}
		}
		switch {
		case delta > 0:
			return s.addLine(ctx, tx, order.ID, productID, sellerID, delta)
		case delta < 0:
			return removeLine(ctx, tx, order.ID, productID, sellerID, -delta)
		}
		return nil
	})
	if err == nil && delta != 0 {
		logger.Info("cart changed", map[string]interface{}{
			"customer_id": customerID,
			"product_id":  productID,
			"seller_id":   sellerID,
			"delta":       delta,
		})
	}
	return err
}

// addLine checks the weight limit first and then that the seller's stock,
// less what other open carts already hold, covers the request.
func (s *Service) addLine(ctx context.Context, tx store.Tx, orderID, productID, sellerID string, n int) error {
	product, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	stock, err := tx.LockStock(ctx, productID, sellerID)
	if err != nil {
		return err
	}
	if stock == nil {
		return ErrNotFound
	}

	weight, err := tx.OrderWeight(ctx, orderID)
	if err != nil {
		return err
	}
	if weight.Add(product.Weight.Mul(decimal.NewFromInt(int64(n)))).GreaterThan(MaxCartWeight) {
		return ErrWeightLimitExceeded
	}

	reserved, err := tx.ReservedAmount(ctx, productID, sellerID)
	if err != nil {
		return err
	}
	if stock.Count-reserved < n {
		return ErrStockUnavailable
	}

	line, err := tx.GetCartLine(ctx, orderID, productID, sellerID)
	if err != nil {
		return err
	}
	if line == nil {
		return tx.InsertCartLine(ctx, models.CartLine{
			OrderID:   orderID,
			ProductID: productID,
			SellerID:  sellerID,
			Amount:    n,
			AddedAt:   s.now(),
		})
	}
	line.Amount += n
	return tx.UpdateCartLine(ctx, *line)
}

// removeLine deletes the line once its amount would drop to zero or below.
func removeLine(ctx context.Context, tx store.Tx, orderID, productID, sellerID string, n int) error {
	line, err := tx.GetCartLine(ctx, orderID, productID, sellerID)
	if err != nil {
		return err
	}
	if line == nil {
		return ErrNotFound
	}
	if line.Amount-n <= 0 {
		return tx.DeleteCartLine(ctx, orderID, productID, sellerID)
	}
	line.Amount -= n
	return tx.UpdateCartLine(ctx, *line)
}
