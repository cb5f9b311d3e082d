package service

import (
	"context"

	models "marketplace/model"
)

type SessionManager interface {
	Register(ctx context.Context, sellerID, secret string, planID int) error
	SignIn(ctx context.Context, sellerID, secret string) (models.Session, error)
	SignOut(ctx context.Context, sess models.Session) error
	EndSession(ctx context.Context, sess *models.Session) error
}

type PlanCatalog interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	CurrentSubscription(ctx context.Context, sess models.Session) (models.Plan, error)
	ChangePlan(ctx context.Context, sess models.Session, planID int) (models.Session, error)
}

type InventoryManager interface {
	AdjustStock(ctx context.Context, sess models.Session, productID string, delta int) (models.Stock, error)
}

type CartEngine interface {
	ShowCart(ctx context.Context, customerID string) ([]models.CartLine, error)
	ChangeCart(ctx context.Context, customerID, productID, sellerID string, delta int) error
}

type OrderFulfillment interface {
	PurchaseCart(ctx context.Context, customerID string) (models.Order, error)
	Ship(ctx context.Context, orderIDs []string) ([]models.Order, error)
}

// ServiceInterface is everything the command dispatcher can call.
type ServiceInterface interface {
	SessionManager
	PlanCatalog
	InventoryManager
	CartEngine
	OrderFulfillment
}
