package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

type Repository interface {
	GetByEmail(ctx context.Context, email string) (Profile, error)
	GetByID(ctx context.Context, id string) (Profile, error)
	Create(ctx context.Context, p *Profile, roles ...string) error
	HasRole(ctx context.Context, userID, role string) (bool, error)
	UpdateContact(ctx context.Context, userID string, c Contact) error
	ListAll(ctx context.Context) ([]Profile, error)
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectProfile = `
	SELECT id::text, name, email, password_hash,
	       COALESCE(phone, ''), COALESCE(address, ''), COALESCE(city, ''),
	       COALESCE(state, ''), COALESCE(pincode, ''), COALESCE(country, ''),
	       created_at, updated_at
	FROM profiles`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash,
		&p.Phone, &p.Address, &p.City, &p.State, &p.Pincode, &p.Country,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("select profile by email: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// Create inserts the profile and its roles in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile, roles ...string) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO profiles (id, name, email, password_hash)
			VALUES ($1::uuid, $2, $3, $4)
			RETURNING created_at, updated_at
		`, p.ID, p.Name, p.Email, p.PasswordHash).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert profile: %w", err)
		}

		for _, role := range roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role) VALUES ($1::uuid, $2) ON CONFLICT DO NOTHING`,
				p.ID, role,
			); err != nil {
				return fmt.Errorf("insert role %s: %w", role, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1::uuid AND role = $2)`,
		userID, role,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("select role: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) UpdateContact(ctx context.Context, userID string, c Contact) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET phone = $2, address = $3, city = $4, state = $5, pincode = $6, updated_at = now()
		WHERE id = $1::uuid
	`, userID, c.Phone, c.Address, c.City, c.State, c.Pincode)
	if err != nil {
		return fmt.Errorf("update profile contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, selectProfile+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
