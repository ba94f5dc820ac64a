package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
)

// PaymentReceipt acknowledges a simulated payment. No money moves and the
// order status is left untouched.
type PaymentReceipt struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Mode    string          `json:"mode"`
	Message string          `json:"message"`
}

func (s *Service) ConfirmPayment(ctx context.Context, sess session.Session, orderID string) (PaymentReceipt, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return PaymentReceipt{}, apperror.NotFound("order not found")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return PaymentReceipt{}, apperror.NotFound("order not found")
		}
		return PaymentReceipt{}, apperror.Internal("failed to load order", err)
	}
	if o.UserID != sess.UserID {
		return PaymentReceipt{}, apperror.NotFound("order not found")
	}

	s.logger.Sugar().Infow("demo payment confirmed", "order_id", o.ID, "user_id", sess.UserID)
	return PaymentReceipt{
		OrderID: o.ID,
		Amount:  o.TotalAmount,
		Mode:    "demo",
		Message: "payment simulated; no payment gateway is configured",
	}, nil
}
