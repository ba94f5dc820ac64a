// Package checkout turns a session's cart into a persisted order.
package checkout

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/address"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
)

// Request is the checkout form. AddressSelection is address.SelectionNew
// or the id of a saved address; empty means new.
type Request struct {
	Billing          address.Info `json:"billing"`
	AddressSelection string       `json:"addressSelection"`
}

// ContactUpdater copies billing contact details onto the user's profile.
type ContactUpdater interface {
	UpdateContact(ctx context.Context, userID string, c identity.Contact) error
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o order.Order) error
}

type Service struct {
	pool      db.Pool
	addresses address.Repository
	orders    order.Repository
	profiles  ContactUpdater
	publisher Publisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewService(
	pool db.Pool,
	addresses address.Repository,
	orders order.Repository,
	profiles ContactUpdater,
	publisher Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		pool:      pool,
		addresses: addresses,
		orders:    orders,
		profiles:  profiles,
		publisher: publisher,
		metrics:   m,
		validate:  validator.New(),
		logger:    logger,
	}
}

// PlaceOrder persists the cart as a pending order. The address (when new),
// the order header and its items are written in one transaction; the cart
// is cleared only after it commits. Line items are taken from a snapshot
// made on entry, so concurrent cart edits never leak into the order.
func (s *Service) PlaceOrder(ctx context.Context, sess session.Session, c *cart.Cart, req Request) (order.Order, error) {
	o, err := s.placeOrder(ctx, sess, c, req)
	if err != nil {
		s.metrics.CheckoutFailed(string(apperror.KindOf(err)))
		return order.Order{}, err
	}
	s.metrics.OrderPlaced(o.TotalAmount)
	return o, nil
}

func (s *Service) placeOrder(ctx context.Context, sess session.Session, c *cart.Cart, req Request) (order.Order, error) {
	if sess.UserID == "" {
		return order.Order{}, apperror.Auth("please log in to place an order")
	}

	snap := c.Snapshot()
	if snap.IsEmpty() {
		return order.Order{}, apperror.Validation("your cart is empty")
	}

	selection := strings.TrimSpace(req.AddressSelection)
	isNew := selection == "" || selection == address.SelectionNew

	info := req.Billing
	if !isNew {
		saved, err := address.Resolve(ctx, s.addresses, sess.UserID, selection)
		if err != nil {
			return order.Order{}, err
		}
		info = saved.Info()
	}

	info = info.Trimmed()
	if err := s.validate.Struct(info); err != nil {
		return order.Order{}, apperror.Validation("please fill in all required billing fields")
	}

	o := newOrder(sess.UserID, info, snap)

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if isNew {
			a := address.NewFromInfo(sess.UserID, info)
			if err := s.addresses.Insert(ctx, tx, &a); err != nil {
				return err
			}
		}
		return s.orders.Insert(ctx, tx, &o)
	})
	if err != nil {
		s.logger.Error("place order failed", zap.String("user_id", sess.UserID), zap.Error(err))
		return order.Order{}, apperror.Write("failed to place order", err)
	}

	c.Clear()

	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)

	if isNew {
		s.updateProfile(ctx, sess.UserID, info)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
		s.logger.Warn("publish order placed failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// updateProfile is best-effort: the order already exists.
func (s *Service) updateProfile(ctx context.Context, userID string, info address.Info) {
	err := s.profiles.UpdateContact(ctx, userID, identity.Contact{
		Phone:   info.Phone,
		Address: info.Address,
		City:    info.City,
		State:   info.State,
		Pincode: info.Pincode,
	})
	if err != nil {
		s.logger.Warn("update profile contact failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func newOrder(userID string, info address.Info, snap cart.Snapshot) order.Order {
	o := order.Order{
		UserID:         userID,
		BillingName:    info.Name,
		BillingPhone:   info.Phone,
		BillingAddress: info.Flatten(),
		BillingCity:    info.City,
		BillingState:   info.State,
		BillingPincode: info.Pincode,
		Status:         order.StatusPending,
		TotalAmount:    snap.TotalPrice,
		Items:          make([]order.Item, 0, len(snap.Lines)),
	}
	for _, l := range snap.Lines {
		o.Items = append(o.Items, order.Item{
			ProductName:  l.Name,
			ProductPrice: l.UnitPrice,
			Quantity:     l.Quantity,
		})
	}
	return o
}
