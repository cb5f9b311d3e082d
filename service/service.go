package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/events"
	"marketplace/logger"
	models "marketplace/model"
	"marketplace/store"

	"github.com/google/uuid"
)

// Service is the marketplace engine. Every exported operation runs as one
// store unit of work.
type Service struct {
	store     store.Store
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithPublisher sets where committed order transitions are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: events.NopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ServiceInterface = (*Service)(nil)

// run executes fn as one unit of work and converts store faults into
// ErrOperationFailed. Business errors pass through untouched.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, tx store.Tx) error) error {
	err := s.store.InTx(ctx, fn)
	if err == nil || isBusiness(err) {
		return err
	}
	logger.Error("operation failed", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
	if errors.Is(err, ErrOperationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOperationFailed, err)
}

func isBusiness(err error) bool {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, orders ...models.Order) {
	for _, o := range orders {
		ev := events.OrderEvent(o)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Warn("event not published", map[string]interface{}{
				"type":     ev.Type,
				"order_id": o.ID,
				"error":    err.Error(),
			})
		}
	}
}
