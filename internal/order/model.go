package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"orderId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (it Item) Total() decimal.Decimal {
	return it.ProductPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID             string          `json:"orderId"`
	UserID         string          `json:"userId"`
	BillingName    string          `json:"billingName"`
	BillingPhone   string          `json:"billingPhone"`
	BillingAddress string          `json:"billingAddress"`
	BillingCity    string          `json:"billingCity,omitempty"`
	BillingState   string          `json:"billingState,omitempty"`
	BillingPincode string          `json:"billingPincode,omitempty"`
	CourierNo      string          `json:"courierNo,omitempty"`
	Status         Status          `json:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Items          []Item          `json:"items"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (o Order) HasCourier() bool {
	return o.CourierNo != ""
}

// Customer is the owning profile of an order as shown to admins.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// AdminView is an order joined with its customer for the admin order list.
type AdminView struct {
	Order
	Customer    Customer `json:"customer"`
	StatusLabel string   `json:"statusLabel"`
	ItemCount   int      `json:"itemCount"`
}

// newCustomer prefers profile data and falls back to the billing snapshot.
func newCustomer(o Order, profileName, profileEmail, profilePhone string) Customer {
	c := Customer{Name: profileName, Email: profileEmail, Phone: profilePhone}
	if c.Name == "" {
		c.Name = o.BillingName
	}
	if c.Name == "" {
		c.Name = "Unknown"
	}
	if c.Phone == "" {
		c.Phone = o.BillingPhone
	}
	return c
}

// Assignment pairs an order with a courier tracking number.
type Assignment struct {
	OrderID   string `json:"orderId"`
	CourierNo string `json:"courierNo"`
}

// Filter narrows the admin order listing.
type Filter struct {
	Unassigned bool
	Assigned   bool
	IDs        []string
}
