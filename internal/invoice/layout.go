// Package invoice lays out and renders order invoices as PDF documents.
package invoice

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const (
	Title      = "INVOICE"
	dateLayout = "2006-01-02"
	noCourier  = "N/A"
)

var Columns = [4]string{"Item", "Qty", "Price", "Total"}

// Page is the printable content of one order's invoice, independent of the
// output format.
type Page struct {
	OrderID  string
	Header   []string
	Customer []string
	Rows     []Row
	Total    string
}

type Row struct {
	Item  string
	Qty   string
	Price string
	Total string
}

// Layout builds the invoice page for o. Amounts are prefixed with currency.
// The total is the amount stored on the order, not a sum of the rows.
func Layout(o order.Order, currency string) Page {
	courier := o.CourierNo
	if courier == "" {
		courier = noCourier
	}

	p := Page{
		OrderID: o.ID,
		Header: []string{
			"Order ID: " + o.ID,
			"Date: " + o.CreatedAt.Format(dateLayout),
			"Courier No: " + courier,
		},
		Customer: []string{
			"Name: " + o.BillingName,
			"Phone: " + o.BillingPhone,
			"Address: " + o.BillingAddress,
		},
		Rows:  make([]Row, 0, len(o.Items)),
		Total: "Total: " + money(currency, o.TotalAmount),
	}

	for _, line := range []struct{ label, value string }{
		{"City", o.BillingCity},
		{"State", o.BillingState},
		{"Pincode", o.BillingPincode},
	} {
		if line.value != "" {
			p.Customer = append(p.Customer, fmt.Sprintf("%s: %s", line.label, line.value))
		}
	}

	for _, it := range o.Items {
		p.Rows = append(p.Rows, Row{
			Item:  it.ProductName,
			Qty:   strconv.Itoa(it.Quantity),
			Price: money(currency, it.ProductPrice),
			Total: money(currency, it.Total()),
		})
	}
	return p
}

func money(currency string, d decimal.Decimal) string {
	return currency + d.StringFixed(2)
}
