// Package session issues and resolves signed session tokens. Every live
// session is also recorded in a Store so sign-out can revoke it before the
// token expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
)

type Session struct {
	ID        string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is the identity a session is opened for.
type Principal struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
}

type claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"admin"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// Begin opens a session for p and returns its bearer token.
func (m *Manager) Begin(ctx context.Context, p Principal) (string, Session, error) {
	now := m.now().UTC().Truncate(time.Second)
	s := Session{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		IsAdmin:   p.IsAdmin,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:    s.Name,
		Email:   s.Email,
		IsAdmin: s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}

	if err := m.store.Save(ctx, s.ID, m.ttl); err != nil {
		return "", Session{}, fmt.Errorf("save session: %w", err)
	}
	return signed, s, nil
}

// Resolve validates a bearer token and returns its session. Expired,
// tampered and revoked tokens yield an auth error.
func (m *Manager) Resolve(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, apperror.Auth("please log in to continue")
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, apperror.Auth("session expired, please log in again")
		}
		return Session{}, apperror.Auth("invalid session")
	}

	live, err := m.store.Exists(ctx, c.ID)
	if err != nil {
		return Session{}, apperror.Internal("failed to check session", err)
	}
	if !live {
		return Session{}, apperror.Auth("session ended, please log in again")
	}

	return Session{
		ID:        c.ID,
		UserID:    c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		IsAdmin:   c.IsAdmin,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// End revokes the session.
func (m *Manager) End(ctx context.Context, s Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
