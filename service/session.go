package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"
)

// Register creates a seller with no active sessions.
func (s *Service) Register(ctx context.Context, sellerID, secret string, planID int) error {
	err := s.run(ctx, "register", func(ctx context.Context, tx store.Tx) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrOperationFailed
		}
		err = tx.InsertSeller(ctx, models.Seller{ID: sellerID, Secret: secret, PlanID: planID})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateIdentity
		}
		return err
	})
	if err == nil {
		logger.Info("seller registered", map[string]interface{}{"seller_id": sellerID, "plan_id": planID})
	}
	return err
}

// SignIn admits a new session when the seller's plan still has room. The
// seller row stays locked from the check until the increment commits.
func (s *Service) SignIn(ctx context.Context, sellerID, secret string) (models.Session, error) {
	var sess models.Session
	err := s.run(ctx, "sign_in", func(ctx context.Context, tx store.Tx) error {
		seller, err := tx.LockSeller(ctx, sellerID)
		if err != nil {
			return err
		}
		if seller == nil || subtle.ConstantTimeCompare([]byte(seller.Secret), []byte(secret)) != 1 {
			return ErrInvalidCredentials
		}
		plan, err := tx.GetPlan(ctx, seller.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrOperationFailed
		}
		if seller.SessionCount >= plan.MaxParallelSessions {
			return ErrSessionLimitReached
		}
		seller.SessionCount++
		if err := tx.UpdateSeller(ctx, *seller); err != nil {
			return err
		}
		sess = models.Session{SellerID: seller.ID, SessionCount: seller.SessionCount, PlanID: seller.PlanID}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	logger.Info("seller signed in", map[string]interface{}{
		"seller_id":     sess.SellerID,
		"session_count": sess.SessionCount,
	})
	return sess, nil
}

// SignOut releases one session. A count already at zero is left alone.
func (s *Service) SignOut(ctx context.Context, sess models.Session) error {
	return s.run(ctx, "sign_out", func(ctx context.Context, tx store.Tx) error {
		seller, err := tx.LockSeller(ctx, sess.SellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrNotFound
		}
		if seller.SessionCount == 0 {
			return nil
		}
		seller.SessionCount--
		return tx.UpdateSeller(ctx, *seller)
	})
}

// EndSession signs out sess if there is one.
func (s *Service) EndSession(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return nil
	}
	return s.SignOut(ctx, *sess)
}
