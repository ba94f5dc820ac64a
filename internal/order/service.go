// Package order owns persisted orders: history, the admin listing and the
// status state machine.
package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
)

// Publisher is notified after an order changed.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, o Order, from Status) error
}

type Service struct {
	repo      Repository
	policy    Policy
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewService(repo Repository, policy Policy, publisher Publisher, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{repo: repo, policy: policy, publisher: publisher, metrics: m, logger: logger}
}

// UpdateStatus moves an order to raw (any casing). A change to the current
// status is a no-op. Concurrent writers are last-write-wins.
func (s *Service) UpdateStatus(ctx context.Context, orderID, raw string) (Order, error) {
	to, err := ParseStatus(raw)
	if err != nil {
		return Order{}, apperror.Validation("unknown order status")
	}

	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	from := o.Status
	if from == to {
		return o, nil
	}

	if err := s.policy.Check(from, to); err != nil {
		return Order{}, &apperror.Error{Kind: apperror.KindConflict, Message: err.Error(), Err: err}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, to); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, apperror.NotFound("order not found")
		}
		return Order{}, apperror.Write("failed to update order status", err)
	}
	o.Status = to
	s.metrics.StatusChanged(string(to))

	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	if err := s.publisher.PublishStatusChanged(ctx, o, from); err != nil {
		s.logger.Warn("publish status change failed", zap.String("order_id", orderID), zap.Error(err))
	}
	return o, nil
}

// Get returns the order with its items. A malformed id is reported as not
// found.
func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return Order{}, apperror.NotFound("order not found")
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, s.lookupError(err)
	}
	return o, nil
}

// GetForUser returns the order only when userID owns it.
func (s *Service) GetForUser(ctx context.Context, userID, orderID string) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, apperror.NotFound("order not found")
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load orders", err)
	}
	return orders, nil
}

// ListForAdmin returns every order with items and customer, oldest first.
func (s *Service) ListForAdmin(ctx context.Context) ([]AdminView, error) {
	return s.list(ctx, Filter{})
}

// ListUnassigned returns orders without a courier number, oldest first.
func (s *Service) ListUnassigned(ctx context.Context) ([]AdminView, error) {
	return s.list(ctx, Filter{Unassigned: true})
}

func (s *Service) ListAssigned(ctx context.Context) ([]AdminView, error) {
	return s.list(ctx, Filter{Assigned: true})
}

// ListByIDs returns the requested orders in the order of ids. Unknown ids
// are skipped.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]AdminView, error) {
	if len(ids) == 0 {
		return []AdminView{}, nil
	}
	views, err := s.list(ctx, Filter{IDs: ids})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]AdminView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	out := make([]AdminView, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// AssignCourierNumbers applies a staged batch atomically.
func (s *Service) AssignCourierNumbers(ctx context.Context, assignments []Assignment) error {
	return s.repo.AssignCourierNumbers(ctx, assignments)
}

func (s *Service) list(ctx context.Context, f Filter) ([]AdminView, error) {
	views, err := s.repo.ListAdmin(ctx, f)
	if err != nil {
		return nil, apperror.Internal("failed to load orders", err)
	}
	return views, nil
}

func (s *Service) lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("order not found")
	}
	return apperror.Internal("failed to load order", err)
}
