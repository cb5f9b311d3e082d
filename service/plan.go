package service

import (
	"context"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"
)

func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.run(ctx, "list_plans", func(ctx context.Context, tx store.Tx) error {
		var err error
		plans, err = tx.ListPlans(ctx)
		return err
	})
	return plans, err
}

// CurrentSubscription reads the plan the seller holds now, which may
// differ from the one recorded in sess.
func (s *Service) CurrentSubscription(ctx context.Context, sess models.Session) (models.Plan, error) {
	var plan models.Plan
	err := s.run(ctx, "show_subscription", func(ctx context.Context, tx store.Tx) error {
		seller, err := tx.LockSeller(ctx, sess.SellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrNotFound
		}
		p, err := tx.GetPlan(ctx, seller.PlanID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrNotFound
		}
		plan = *p
		return nil
	})
	return plan, err
}

// ChangePlan moves the seller to planID. Plans with a lower session ceiling
// than the current one are refused regardless of live usage.
func (s *Service) ChangePlan(ctx context.Context, sess models.Session, planID int) (models.Session, error) {
	var updated models.Session
	err := s.run(ctx, "subscribe", func(ctx context.Context, tx store.Tx) error {
		seller, err := tx.LockSeller(ctx, sess.SellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrNotFound
		}
		next, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if next == nil {
			return ErrNotFound
		}
		cur, err := tx.GetPlan(ctx, seller.PlanID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrOperationFailed
		}
		if next.MaxParallelSessions < cur.MaxParallelSessions {
			return ErrDowngradeUnavailable
		}
		seller.PlanID = next.ID
		if err := tx.UpdateSeller(ctx, *seller); err != nil {
			return err
		}
		updated = models.Session{SellerID: seller.ID, SessionCount: seller.SessionCount, PlanID: seller.PlanID}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	logger.Info("plan changed", map[string]interface{}{"seller_id": updated.SellerID, "plan_id": updated.PlanID})
	return updated, nil
}
