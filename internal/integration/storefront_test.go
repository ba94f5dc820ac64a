//go:build integration

package integration

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/address"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/courier"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/testutil"
)

type nopPublisher struct{}

func (nopPublisher) PublishOrderPlaced(ctx context.Context, o order.Order) error { return nil }
func (nopPublisher) PublishStatusChanged(ctx context.Context, o order.Order, from order.Status) error {
	return nil
}
func (nopPublisher) PublishCourierAssigned(ctx context.Context, adminID string, a []order.Assignment) error {
	return nil
}

func TestCheckoutToCourierBatch(t *testing.T) {
	pool, _ := testutil.StartPostgres(t)
	testutil.TruncateAll(t, pool)
	logger := zaptest.NewLogger(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	identities := identity.NewService(identity.NewPostgresRepository(pool), []string{"admin@example.com"}, logger)
	addressRepo := address.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	orders := order.NewService(orderRepo, order.PolicyStrict, nopPublisher{}, nil, logger)
	checkouts := checkout.NewService(pool, addressRepo, orderRepo, identities, nopPublisher{}, nil, logger)
	couriers := courier.NewService(orders, courier.NewBuffers(), invoice.NewRenderer("$", nil), nil, nopPublisher{}, nil, logger)

	shopper, err := identities.Signup(ctx, identity.SignupInput{Name: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, shopper.IsAdmin)

	admin, err := identities.Signup(ctx, identity.SignupInput{Name: "Root", Email: "admin@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	_, err = identities.AdminLogin(ctx, "ada@example.com", "secret1")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	sess := session.Session{ID: "s1", UserID: shopper.Profile.ID}
	info := address.Info{Name: "Ada", Phone: "555-0100", Address: "1 Main St", City: "Springfield", State: "IL", Pincode: "62704"}

	var placed []order.Order
	for i := 0; i < 3; i++ {
		c := cart.New()
		require.NoError(t, c.AddLine(cart.Item{ProductID: "p1", Name: "Linen Shirt", UnitPrice: decimal.RequireFromString("19.99"), Size: "M", SizeRequired: true}))
		require.NoError(t, c.AddLine(cart.Item{ProductID: "p2", Name: "Canvas Tote", UnitPrice: decimal.RequireFromString("5.50")}))

		selection := address.SelectionNew
		if i > 0 {
			saved, err := addressRepo.ListByUser(ctx, shopper.Profile.ID)
			require.NoError(t, err)
			require.Len(t, saved, 1)
			assert.True(t, saved[0].IsDefault)
			selection = saved[0].ID
		}

		o, err := checkouts.PlaceOrder(ctx, sess, c, checkout.Request{Billing: info, AddressSelection: selection})
		require.NoError(t, err)
		assert.True(t, c.Snapshot().IsEmpty())
		placed = append(placed, o)
		time.Sleep(10 * time.Millisecond)
	}

	profile, err := identities.Profile(ctx, shopper.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", profile.Phone)

	fetched, err := orders.GetForUser(ctx, shopper.Profile.ID, placed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "25.49", fetched.TotalAmount.StringFixed(2))
	assert.Equal(t, "1 Main St, Springfield, IL - 62704", fetched.BillingAddress)
	require.Len(t, fetched.Items, 2)

	_, err = orders.UpdateStatus(ctx, placed[2].ID, "cancelled")
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, placed[2].ID, "processing")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	staged, err := couriers.StageFromCSV(ctx, admin.Profile.ID, strings.NewReader("courier_id\nTRK-1\nTRK-2\n"))
	require.NoError(t, err)
	require.Len(t, staged.Pending, 2)
	assert.Equal(t, placed[0].ID, staged.Pending[0].OrderID)
	assert.Equal(t, placed[1].ID, staged.Pending[1].OrderID)

	res, err := couriers.Apply(ctx, admin.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Document.Pages)
	assert.Empty(t, couriers.Pending(admin.Profile.ID))

	assigned, err := orders.ListAssigned(ctx)
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, "TRK-1", assigned[0].CourierNo)
	assert.Equal(t, "Ada", assigned[0].Customer.Name)

	unassigned, err := orders.ListUnassigned(ctx)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, placed[2].ID, unassigned[0].ID)

	// an order that already has a courier number is never re-targeted
	err = orderRepo.AssignCourierNumbers(ctx, []order.Assignment{{OrderID: placed[0].ID, CourierNo: "TRK-X"}})
	assert.ErrorIs(t, err, order.ErrAssignmentConflict)

	doc, err := couriers.GenerateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, invoice.AllFilename, doc.Filename)
}

func TestOrderItemsKeepCartOrder(t *testing.T) {
	pool, _ := testutil.StartPostgres(t)
	testutil.TruncateAll(t, pool)
	logger := zaptest.NewLogger(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	identities := identity.NewService(identity.NewPostgresRepository(pool), nil, logger)
	orderRepo := order.NewPostgresRepository(pool)
	checkouts := checkout.NewService(pool, address.NewPostgresRepository(pool), orderRepo, identities, nopPublisher{}, nil, logger)

	shopper, err := identities.Signup(ctx, identity.SignupInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	names := []string{"Wool Scarf", "Canvas Tote", "Linen Shirt"}
	c := cart.New()
	for i, name := range names {
		require.NoError(t, c.AddLine(cart.Item{ProductID: "p" + strconv.Itoa(i), Name: name, UnitPrice: decimal.RequireFromString("3.00")}))
	}

	placed, err := checkouts.PlaceOrder(ctx, session.Session{ID: "s1", UserID: shopper.Profile.ID}, c, checkout.Request{
		Billing: address.Info{Name: "Ada", Phone: "555-0100", Address: "1 Main St"},
	})
	require.NoError(t, err)

	fetched, err := orderRepo.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 3)
	for i, name := range names {
		assert.Equal(t, name, fetched.Items[i].ProductName)
	}
}
