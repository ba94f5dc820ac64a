// Package httpapi exposes the storefront over HTTP.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/address"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/courier"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/realtime"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
)

const (
	requestTimeout = 5 * time.Second
	batchTimeout   = 30 * time.Second
)

type IdentityService interface {
	RoleChecker
	Signup(ctx context.Context, in identity.SignupInput) (identity.User, error)
	Login(ctx context.Context, email, password string) (identity.User, error)
	AdminLogin(ctx context.Context, email, password string) (identity.User, error)
	Profile(ctx context.Context, userID string) (identity.Profile, error)
	ListProfiles(ctx context.Context) ([]identity.Profile, error)
}

type AddressService interface {
	List(ctx context.Context, userID string) ([]address.BillingAddress, error)
	Add(ctx context.Context, userID string, in address.Info) (address.BillingAddress, error)
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, sess session.Session, c *cart.Cart, req checkout.Request) (order.Order, error)
	ConfirmPayment(ctx context.Context, sess session.Session, orderID string) (checkout.PaymentReceipt, error)
}

type OrderService interface {
	GetForUser(ctx context.Context, userID, orderID string) (order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	ListForAdmin(ctx context.Context) ([]order.AdminView, error)
	ListUnassigned(ctx context.Context) ([]order.AdminView, error)
	ListAssigned(ctx context.Context) ([]order.AdminView, error)
	UpdateStatus(ctx context.Context, orderID, status string) (order.Order, error)
}

type CourierService interface {
	StageFromCSV(ctx context.Context, adminID string, r io.Reader) (courier.StageResult, error)
	Pending(adminID string) []order.Assignment
	Discard(adminID string) error
	Apply(ctx context.Context, adminID string) (courier.ApplyResult, error)
	GenerateAll(ctx context.Context) (*invoice.Document, error)
	Invoice(ctx context.Context, orderID string) (*invoice.Document, error)
}

type OrderFeed interface {
	Watch(ctx context.Context, adminID string) (*realtime.Feed, error)
}

// Deps wires the router. Ready may be nil.
type Deps struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	CORSAllowOrigins []string
	MaxUploadBytes   int64

	Sessions  *session.Manager
	Carts     *cart.Store
	Identity  IdentityService
	Addresses AddressService
	Checkout  CheckoutService
	Orders    OrderService
	Courier   CourierService
	Feed      OrderFeed

	Ready func(ctx context.Context) error
}

type Handler struct {
	logger         *zap.Logger
	sessions       *session.Manager
	carts          *cart.Store
	identity       IdentityService
	addresses      AddressService
	checkout       CheckoutService
	orders         OrderService
	courier        CourierService
	feed           OrderFeed
	maxUploadBytes int64
	allowOrigins   []string
	ready          func(ctx context.Context) error
}

func NewHandler(d Deps) *Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	return &Handler{
		logger:         d.Logger,
		sessions:       d.Sessions,
		carts:          d.Carts,
		identity:       d.Identity,
		addresses:      d.Addresses,
		checkout:       d.Checkout,
		orders:         d.Orders,
		courier:        d.Courier,
		feed:           d.Feed,
		maxUploadBytes: d.MaxUploadBytes,
		allowOrigins:   d.CORSAllowOrigins,
		ready:          d.Ready,
	}
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(d.Logger, d.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors(d.CORSAllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/admin/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(d.Sessions, d.Logger))

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/lines", h.AddCartLine)
			r.Put("/cart/lines/quantity", h.SetCartQuantity)
			r.Delete("/cart/lines", h.RemoveCartLine)
			r.Delete("/cart", h.ClearCart)

			r.Get("/addresses", h.ListAddresses)
			r.Post("/addresses", h.AddAddress)

			r.Post("/checkout", h.Checkout)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderId}", h.GetOrder)
			r.Post("/orders/{orderId}/payment", h.ConfirmPayment)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin(d.Identity, d.Logger))

				r.Get("/orders", h.AdminListOrders)
				r.Get("/orders/stream", h.StreamOrders)
				r.Put("/orders/{orderId}/status", h.UpdateOrderStatus)
				r.Get("/orders/{orderId}/invoice", h.OrderInvoice)
				r.Get("/invoices", h.AllInvoices)

				r.Post("/courier/upload", h.UploadCourierIDs)
				r.Get("/courier/pending", h.PendingAssignments)
				r.Post("/courier/apply", h.ApplyAssignments)
				r.Delete("/courier/pending", h.DiscardAssignments)

				r.Get("/users", h.ListUsers)
			})
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront-service",
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
