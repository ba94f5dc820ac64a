// Package address manages a shopper's saved billing addresses.
package address

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Service struct {
	repo     Repository
	pool     db.Querier
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(repo Repository, pool db.Querier, logger *zap.Logger) *Service {
	return &Service{repo: repo, pool: pool, validate: validator.New(), logger: logger}
}

func (s *Service) List(ctx context.Context, userID string) ([]BillingAddress, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load saved addresses", err)
	}
	return out, nil
}

// Resolve returns the saved address id owned by userID. A malformed id is
// reported like an unknown one.
func Resolve(ctx context.Context, repo Repository, userID, id string) (BillingAddress, error) {
	if _, err := uuid.Parse(id); err != nil {
		return BillingAddress{}, apperror.Validation("selected address was not found")
	}
	a, err := repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return BillingAddress{}, apperror.Validation("selected address was not found")
		}
		return BillingAddress{}, apperror.Internal("failed to load address", err)
	}
	return a, nil
}

// Add saves a new address. The user's first address becomes the default.
func (s *Service) Add(ctx context.Context, userID string, in Info) (BillingAddress, error) {
	in = in.Trimmed()
	if err := s.validate.Struct(in); err != nil {
		return BillingAddress{}, apperror.Validation("please fill in name, phone and address")
	}

	a := NewFromInfo(userID, in)
	if err := s.repo.Insert(ctx, s.pool, &a); err != nil {
		return BillingAddress{}, apperror.Write("failed to save address", err)
	}
	s.logger.Info("address saved", zap.String("user_id", userID), zap.String("address_id", a.ID), zap.Bool("default", a.IsDefault))
	return a, nil
}

func NewFromInfo(userID string, in Info) BillingAddress {
	return BillingAddress{
		UserID:  userID,
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
		City:    in.City,
		State:   in.State,
		Pincode: in.Pincode,
	}
}
