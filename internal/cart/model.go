package cart

import "github.com/shopspring/decimal"

// Key identifies a cart line. Two adds of the same product with a different
// colour or size produce two lines.
type Key struct {
	ProductID string `json:"productId"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// Item is a catalog product with the variant the shopper picked.
type Item struct {
	ProductID    string          `json:"productId" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Image        string          `json:"image,omitempty"`
	Color        string          `json:"color,omitempty"`
	Size         string          `json:"size,omitempty"`
	SizeRequired bool            `json:"sizeRequired,omitempty"`
}

type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Image     string          `json:"image,omitempty"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable copy of a cart at one point in time.
type Snapshot struct {
	Lines      []Line          `json:"lines"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Total      string          `json:"total"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
