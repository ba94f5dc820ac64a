package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/address"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/courier"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/httpapi"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/realtime"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log).With(zap.String("service", cfg.App.Name))
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.DSN, logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer pool.Close()

	rabbitConn, err := events.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("dial rabbitmq", zap.Error(err))
	}
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal("create event publisher", zap.Error(err))
	}

	sessionStore, closeStore := newSessionStore(ctx, cfg.Redis, logger)
	defer closeStore()

	policy, err := order.ParsePolicy(cfg.Orders.StatusPolicy)
	if err != nil {
		logger.Fatal("order status policy", zap.Error(err))
	}

	m := metrics.New()

	identities := identity.NewService(identity.NewPostgresRepository(pool), cfg.Identity.AdminEmails, logger.Named("identity"))
	addressRepo := address.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	orders := order.NewService(orderRepo, policy, publisher, m, logger.Named("orders"))
	checkouts := checkout.NewService(pool, addressRepo, orderRepo, identities, publisher, m, logger.Named("checkout"))

	couriers := courier.NewService(
		orders,
		courier.NewBuffers(),
		invoice.NewRenderer(cfg.Invoice.CurrencyPrefix, m),
		newArchive(ctx, cfg.Invoice.Archive, logger),
		publisher,
		m,
		logger.Named("courier"),
	)

	syncer := realtime.NewSyncer(orders, events.NewSubscriber(rabbitConn, cfg.RabbitMQ.Exchange, logger.Named("events")), m, logger.Named("realtime"))

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger.Named("http"),
		Metrics:          m,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		MaxUploadBytes:   cfg.HTTP.MaxUploadBytes,
		Sessions:         session.NewManager(cfg.Session.Secret, cfg.Session.TTL, sessionStore),
		Carts:            cart.NewStore(),
		Identity:         identities,
		Addresses:        address.NewService(addressRepo, pool, logger.Named("address")),
		Checkout:         checkouts,
		Orders:           orders,
		Courier:          couriers,
		Feed:             syncer,
		Ready: func(ctx context.Context) error {
			if rabbitConn.IsClosed() {
				return errors.New("rabbitmq connection closed")
			}
			return pool.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront-service listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher close error", zap.Error(err))
	}
}

// newSessionStore uses Redis when an address is configured and falls back
// to an in-process store otherwise.
func newSessionStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (session.Store, func()) {
	if cfg.Addr == "" {
		logger.Info("session store: in-memory")
		return session.NewMemoryStore(), func() {}
	}

	store, err := session.NewRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Fatal("connect session store", zap.Error(err))
	}
	logger.Info("session store: redis", zap.String("addr", cfg.Addr))
	return store, func() { _ = store.Close() }
}

// newArchive returns nil when no archive bucket is configured.
func newArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) invoice.Archiver {
	if cfg.Bucket == "" {
		return nil
	}
	a, err := invoice.NewS3Archive(ctx, cfg, logger.Named("archive"))
	if err != nil {
		logger.Fatal("invoice archive", zap.Error(err))
	}
	return a
}
