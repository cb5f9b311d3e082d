package service

import (
	"context"
	"fmt"
	"sort"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"
)

type stockKey struct{ productID, sellerID string }

// lockStocks locks the stock rows behind lines in (product, seller) order
// so concurrent purchases and shipments cannot deadlock each other.
func lockStocks(ctx context.Context, tx store.Tx, lines []models.CartLine) (map[stockKey]*models.Stock, error) {
	keys := make([]stockKey, 0, len(lines))
	seen := make(map[stockKey]bool, len(lines))
	for _, l := range lines {
		k := stockKey{l.ProductID, l.SellerID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		return keys[i].sellerID < keys[j].sellerID
	})

	stocks := make(map[stockKey]*models.Stock, len(keys))
	for _, k := range keys {
		st, err := tx.LockStock(ctx, k.productID, k.sellerID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, fmt.Errorf("stock %s/%s: %w", k.productID, k.sellerID, ErrStockUnavailable)
		}
		stocks[k] = st
	}
	return stocks, nil
}

// PurchaseCart checks every line of the open order against stock and, only
// if all pass, decrements the stock and moves the order to RECEIVED.
func (s *Service) PurchaseCart(ctx context.Context, customerID string) (models.Order, error) {
	var order models.Order
	err := s.run(ctx, "purchase_cart", func(ctx context.Context, tx store.Tx) error {
		open, err := tx.LockOpenOrder(ctx, customerID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenCart
		}
		lines, err := tx.ListCartLines(ctx, open.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		stocks, err := lockStocks(ctx, tx, lines)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if stocks[stockKey{l.ProductID, l.SellerID}].Count < l.Amount {
				return fmt.Errorf("product %s from %s: %w", l.ProductID, l.SellerID, ErrStockUnavailable)
			}
		}
		for _, l := range lines {
			st := stocks[stockKey{l.ProductID, l.SellerID}]
			st.Count -= l.Amount
			if err := tx.UpdateStock(ctx, *st); err != nil {
				return err
			}
		}

		now := s.now()
		open.Status = models.StatusReceived
		open.OrderTime = &now
		if err := tx.UpdateOrder(ctx, *open); err != nil {
			return err
		}
		open.Lines = lines
		order = *open
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	logger.Info("cart purchased", map[string]interface{}{
		"customer_id": customerID,
		"order_id":    order.ID,
		"lines":       len(order.Lines),
	})
	s.publish(ctx, order)
	return order, nil
}

// Ship moves a batch of RECEIVED orders to SHIPPED. The batch is all or
// nothing: one missing order, wrong state or short stock row aborts every
// order in it. Stock is checked per order in the given order against what
// the earlier orders of the batch already consumed.
func (s *Service) Ship(ctx context.Context, orderIDs []string) ([]models.Order, error) {
	ids := dedupe(orderIDs)
	var shipped []models.Order
	err := s.run(ctx, "ship", func(ctx context.Context, tx store.Tx) error {
		shipped = shipped[:0]

		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		locked := make(map[string]*models.Order, len(ids))
		for _, id := range sorted {
			o, err := tx.LockOrder(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = o
		}

		var all []models.CartLine
		batch := make([]*models.Order, 0, len(ids))
		for _, id := range ids {
			o := locked[id]
			if o == nil {
				return fmt.Errorf("order %s: %w", id, ErrNotFound)
			}
			if next, ok := o.Status.Next(); !ok || next != models.StatusShipped {
				return fmt.Errorf("order %s is %s: %w", id, o.Status, ErrInvalidOrderState)
			}
			lines, err := tx.ListCartLines(ctx, id)
			if err != nil {
				return err
			}
			o.Lines = lines
			all = append(all, lines...)
			batch = append(batch, o)
		}

		stocks, err := lockStocks(ctx, tx, all)
		if err != nil {
			return err
		}
		demand := make(map[stockKey]int, len(stocks))
		for _, o := range batch {
			for _, l := range o.Lines {
				k := stockKey{l.ProductID, l.SellerID}
				demand[k] += l.Amount
				if stocks[k].Count < demand[k] {
					return fmt.Errorf("order %s: %w", o.ID, ErrStockUnavailable)
				}
			}
		}
		for k, n := range demand {
			st := stocks[k]
			st.Count -= n
			if err := tx.UpdateStock(ctx, *st); err != nil {
				return err
			}
		}

		now := s.now()
		for _, o := range batch {
			o.Status = models.StatusShipped
			o.ShippingTime = &now
			if err := tx.UpdateOrder(ctx, *o); err != nil {
				return err
			}
			shipped = append(shipped, *o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("orders shipped", map[string]interface{}{"order_ids": ids})
	s.publish(ctx, shipped...)
	return shipped, nil
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
