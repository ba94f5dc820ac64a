// Package cart holds the per-session shopping cart. Carts live in memory
// only and are dropped when the session ends or an order is placed.
package cart

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
)

var validate = validator.New()

// Cart is an ordered list of lines keyed by (product, colour, size).
// It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddLine adds one unit of item. An existing line with the same key has its
// quantity incremented instead.
func (c *Cart) AddLine(item Item) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	item.Name = strings.TrimSpace(item.Name)
	if err := validate.Struct(item); err != nil {
		return apperror.Validation("product id and name are required")
	}
	if item.UnitPrice.IsNegative() {
		return apperror.Validation("unit price must not be negative")
	}
	if item.SizeRequired && strings.TrimSpace(item.Size) == "" {
		return apperror.Validation("please select a size")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{ProductID: item.ProductID, Color: item.Color, Size: item.Size}
	if i := c.indexOf(key); i >= 0 {
		c.lines[i].Quantity++
		return nil
	}

	c.lines = append(c.lines, Line{
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Image:     item.Image,
		Color:     item.Color,
		Size:      item.Size,
		Quantity:  1,
	})
	return nil
}

// RemoveLine deletes the line with key. Unknown keys are ignored.
func (c *Cart) RemoveLine(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// SetQuantity replaces the quantity of an existing line; qty <= 0 removes it.
func (c *Cart) SetQuantity(key Key, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		c.removeLocked(key)
		return
	}
	if i := c.indexOf(key); i >= 0 {
		c.lines[i].Quantity = qty
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalItemsLocked()
}

// TotalPrice is the exact sum of unit price times quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPriceLocked()
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	total := c.totalPriceLocked()
	return Snapshot{
		Lines:      lines,
		TotalItems: c.totalItemsLocked(),
		TotalPrice: total,
		Total:      total.StringFixed(2),
	}
}

func (c *Cart) indexOf(key Key) int {
	for i, l := range c.lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Cart) removeLocked(key Key) {
	if i := c.indexOf(key); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) totalItemsLocked() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) totalPriceLocked() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
