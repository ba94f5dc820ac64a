// Package identity handles shopper and admin sign-up, login and profiles.
package identity

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
)

const invalidCredentials = "invalid email or password"

type Service struct {
	repo        Repository
	logger      *zap.Logger
	validate    *validator.Validate
	adminEmails []string
	hashCost    int
}

// NewService builds the identity service. Signups whose email appears in
// adminEmails are granted the admin role.
func NewService(repo Repository, adminEmails []string, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		validate:    validator.New(),
		adminEmails: adminEmails,
		hashCost:    bcrypt.DefaultCost,
	}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return User{}, signupValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, apperror.Internal("failed to create account", err)
	}

	p := Profile{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}

	var roles []string
	isAdmin := slices.Contains(s.adminEmails, in.Email)
	if isAdmin {
		roles = append(roles, RoleAdmin)
	}

	if err := s.repo.Create(ctx, &p, roles...); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, apperror.Conflict("an account with this email already exists")
		}
		return User{}, apperror.Write("failed to create account", err)
	}

	s.logger.Info("account created", zap.String("user_id", p.ID), zap.Bool("admin", isAdmin))
	return User{Profile: p, IsAdmin: isAdmin}, nil
}

// Login verifies credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, apperror.Validation("email and password are required")
	}

	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperror.Auth(invalidCredentials)
		}
		return User{}, apperror.Internal("failed to sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return User{}, apperror.Auth(invalidCredentials)
	}

	isAdmin, err := s.repo.HasRole(ctx, p.ID, RoleAdmin)
	if err != nil {
		return User{}, apperror.Internal("failed to sign in", err)
	}
	return User{Profile: p, IsAdmin: isAdmin}, nil
}

// AdminLogin is Login followed by an admin role check.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (User, error) {
	u, err := s.Login(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	if !u.IsAdmin {
		s.logger.Warn("admin login refused", zap.String("user_id", u.Profile.ID))
		return User{}, apperror.Forbidden("access denied: admin privileges required")
	}
	return u, nil
}

func (s *Service) HasRole(ctx context.Context, userID, role string) (bool, error) {
	return s.repo.HasRole(ctx, userID, role)
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, apperror.NotFound("profile not found")
		}
		return Profile{}, apperror.Internal("failed to load profile", err)
	}
	return p, nil
}

func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	ps, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to load users", err)
	}
	if ps == nil {
		ps = []Profile{}
	}
	return ps, nil
}

// UpdateContact overwrites the contact fields of a profile.
func (s *Service) UpdateContact(ctx context.Context, userID string, c Contact) error {
	return s.repo.UpdateContact(ctx, userID, c)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func signupValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("invalid signup request")
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Password" && fe.Tag() == "min":
		return apperror.Validation("password must be at least 6 characters")
	case fe.Field() == "Email" && fe.Tag() == "email":
		return apperror.Validation("please enter a valid email address")
	default:
		return apperror.Validation("please fill in all fields")
	}
}
