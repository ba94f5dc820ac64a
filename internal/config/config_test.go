package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_SESSION_SECRET", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8084", cfg.HTTP.Addr)
	assert.Equal(t, "strict", cfg.Orders.StatusPolicy)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, "storefront.events", cfg.RabbitMQ.Exchange)
	assert.True(t, cfg.Database.RunMigrations)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Invoice.Archive.Bucket)
	assert.Empty(t, cfg.Identity.AdminEmails)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionLogsJSON(t *testing.T) {
	t.Setenv("STOREFRONT_SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STOREFRONT_APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("STOREFRONT_LOG_FORMAT", "console")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9000")
	t.Setenv("STOREFRONT_ORDERS_STATUS_POLICY", "FREE")
	t.Setenv("STOREFRONT_HTTP_CORS_ALLOW_ORIGINS", "https://shop.example, https://admin.example")
	t.Setenv("STOREFRONT_SESSION_TTL", "2h")
	t.Setenv("STOREFRONT_IDENTITY_ADMIN_EMAILS", "Admin@Shop.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "free", cfg.Orders.StatusPolicy)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"admin@shop.example"}, cfg.Identity.AdminEmails)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("STOREFRONT_SESSION_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate_UnknownPolicy(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{DSN: "postgres://x"},
		Session:  SessionConfig{Secret: "0123456789abcdef", TTL: time.Hour},
		Orders:   OrdersConfig{StatusPolicy: "loose"},
	}
	require.EqualError(t, cfg.Validate(), `unknown order status policy "loose"`)
}
