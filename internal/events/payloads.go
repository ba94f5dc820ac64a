package events

import "github.com/shopspring/decimal"

const (
	EventOrderCreated         = "OrderCreated"
	EventOrderItemsCreated    = "OrderItemsCreated"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventOrderCourierAssigned = "OrderCourierAssigned"
)

type OrderCreatedPayload struct {
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
}

type OrderItemsCreatedPayload struct {
	OrderID   string `json:"orderId"`
	ItemCount int    `json:"itemCount"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"orderId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type CourierAssignment struct {
	OrderID   string `json:"orderId"`
	CourierNo string `json:"courierNo"`
}

type OrderCourierAssignedPayload struct {
	AdminID     string              `json:"adminId"`
	Assignments []CourierAssignment `json:"assignments"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]
type OrderItemsCreatedEnvelope = EventEnvelope[OrderItemsCreatedPayload]
type OrderStatusChangedEnvelope = EventEnvelope[OrderStatusChangedPayload]
type OrderCourierAssignedEnvelope = EventEnvelope[OrderCourierAssignedPayload]
