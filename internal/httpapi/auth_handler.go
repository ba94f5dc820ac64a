package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      identity.Profile `json:"user"`
	IsAdmin   bool             `json:"isAdmin"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in identity.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	u, err := h.identity.Signup(ctx, in)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.beginSession(ctx, w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.identity.Login)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.identity.AdminLogin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email, password string) (identity.User, error)) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	u, err := fn(ctx, in.Email, in.Password)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.beginSession(ctx, w, http.StatusOK, u)
}

func (h *Handler) beginSession(ctx context.Context, w http.ResponseWriter, status int, u identity.User) {
	token, s, err := h.sessions.Begin(ctx, session.Principal{
		UserID:  u.Profile.ID,
		Name:    u.Profile.Name,
		Email:   u.Profile.Email,
		IsAdmin: u.IsAdmin,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, ExpiresAt: s.ExpiresAt, User: u.Profile, IsAdmin: u.IsAdmin})
}

// Logout revokes the session and drops its cart.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.sessions.End(ctx, s); err != nil {
		h.logger.Error("end session failed", zap.String("session_id", s.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.carts.Drop(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.identity.Profile(ctx, s.UserID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":   p,
		"isAdmin":   s.IsAdmin,
		"expiresAt": s.ExpiresAt,
	})
}
