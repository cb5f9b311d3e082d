package service

import (
	"context"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"
)

// AdjustStock adds delta (which may be negative) to the seller's stock of
// productID.
func (s *Service) AdjustStock(ctx context.Context, sess models.Session, productID string, delta int) (models.Stock, error) {
	var stock models.Stock
	err := s.run(ctx, "change_stock", func(ctx context.Context, tx store.Tx) error {
		cur, err := tx.LockStock(ctx, productID, sess.SellerID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound
		}
		if cur.Count+delta < 0 {
			return ErrInvalidQuantity
		}
		cur.Count += delta
		if err := tx.UpdateStock(ctx, *cur); err != nil {
			return err
		}
		stock = *cur
		return nil
	})
	if err != nil {
		return models.Stock{}, err
	}
	logger.Info("stock adjusted", map[string]interface{}{
		"seller_id":   stock.SellerID,
		"product_id":  stock.ProductID,
		"delta":       delta,
		"stock_count": stock.Count,
	})
	return stock, nil
}
