package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
)

func shirt(color, size string) Item {
	return Item{
		ProductID: "p-shirt",
		Name:      "Linen Shirt",
		UnitPrice: decimal.RequireFromString("19.99"),
		Color:     color,
		Size:      size,
	}
}

func TestAddLine_SameKeyIncrements(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	require.NoError(t, c.AddLine(shirt("blue", "M")))

	snap := c.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, 2, snap.TotalItems)
}

func TestAddLine_VariantsAreDistinctLines(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	require.NoError(t, c.AddLine(shirt("blue", "L")))
	require.NoError(t, c.AddLine(shirt("red", "M")))

	snap := c.Snapshot()
	require.Len(t, snap.Lines, 3)
	assert.Equal(t, "L", snap.Lines[1].Size)
	assert.Equal(t, "red", snap.Lines[2].Color)
}

func TestAddLine_MissingSize(t *testing.T) {
	c := New()
	item := shirt("blue", "")
	item.SizeRequired = true

	err := c.AddLine(item)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 0, c.TotalItems())
}

func TestAddLine_RejectsMissingProduct(t *testing.T) {
	c := New()
	err := c.AddLine(Item{Name: "nameless"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestSetQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	key := Key{ProductID: "p-shirt", Color: "blue", Size: "M"}

	c.SetQuantity(key, 5)
	assert.Equal(t, 5, c.TotalItems())

	c.SetQuantity(key, 0)
	assert.Equal(t, 0, c.TotalItems())
	assert.True(t, c.Snapshot().IsEmpty())
}

func TestSetQuantity_NegativeRemoves(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	c.SetQuantity(Key{ProductID: "p-shirt", Color: "blue", Size: "M"}, -3)
	assert.True(t, c.Snapshot().IsEmpty())
}

func TestRemoveLine_KeepsOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("a", "S")))
	require.NoError(t, c.AddLine(shirt("b", "S")))
	require.NoError(t, c.AddLine(shirt("c", "S")))

	c.RemoveLine(Key{ProductID: "p-shirt", Color: "b", Size: "S"})
	c.RemoveLine(Key{ProductID: "missing"})

	snap := c.Snapshot()
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "a", snap.Lines[0].Color)
	assert.Equal(t, "c", snap.Lines[1].Color)
}

func TestTotalPrice_ExactDecimal(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddLine(Item{ProductID: "p-dime", Name: "Dime", UnitPrice: decimal.RequireFromString("0.10")}))
	}
	require.NoError(t, c.AddLine(Item{ProductID: "p-cap", Name: "Cap", UnitPrice: decimal.RequireFromString("0.20")}))

	assert.True(t, decimal.RequireFromString("0.50").Equal(c.TotalPrice()))
	assert.Equal(t, "0.50", c.Snapshot().Total)
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	c.Clear()
	assert.Equal(t, 0, c.TotalItems())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := New()
	require.NoError(t, c.AddLine(shirt("blue", "M")))
	snap := c.Snapshot()

	require.NoError(t, c.AddLine(shirt("blue", "M")))
	assert.Equal(t, 1, snap.Lines[0].Quantity)
}

func TestStore_GetAndDrop(t *testing.T) {
	s := NewStore()
	a := s.Get("session-a", time.Time{})
	require.NoError(t, a.AddLine(shirt("blue", "M")))

	assert.Same(t, a, s.Get("session-a", time.Time{}))
	assert.NotSame(t, a, s.Get("session-b", time.Time{}))

	s.Drop("session-a")
	assert.Equal(t, 0, s.Get("session-a", time.Time{}).TotalItems())
}

func TestStore_EvictsExpiredSessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.Get("short", now.Add(time.Second))
	s.Get("long", now.Add(time.Hour))
	require.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Minute)
	s.Get("fresh", now.Add(time.Hour))
	now = now.Add(time.Hour)
	s.Get("latest", now.Add(time.Hour))
	assert.Equal(t, 1, s.Len())
}

func TestCart_ConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.AddLine(shirt("blue", "M"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.TotalItems())
}
