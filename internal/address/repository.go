package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]BillingAddress, error)
	Get(ctx context.Context, userID, id string) (BillingAddress, error)
	// Insert saves a on q, marking it default when the user has no other
	// address. q may be a transaction.
	Insert(ctx context.Context, q db.Querier, a *BillingAddress) error
}

type PostgresRepository struct {
	pool db.Querier
}

func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectAddress = `
	SELECT id::text, user_id::text, name, phone, address,
	       COALESCE(city, ''), COALESCE(state, ''), COALESCE(pincode, ''),
	       is_default, created_at, updated_at
	FROM billing_addresses`

func scanAddress(row pgx.Row) (BillingAddress, error) {
	var a BillingAddress
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Address,
		&a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListByUser returns the default address first, then newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]BillingAddress, error) {
	rows, err := r.pool.Query(ctx,
		selectAddress+` WHERE user_id = $1::uuid ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	defer rows.Close()

	out := []BillingAddress{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (BillingAddress, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx,
		selectAddress+` WHERE id = $1::uuid AND user_id = $2::uuid`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BillingAddress{}, ErrNotFound
		}
		return BillingAddress{}, fmt.Errorf("select address: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, q db.Querier, a *BillingAddress) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	err := q.QueryRow(ctx, `
		INSERT INTO billing_addresses (id, user_id, name, phone, address, city, state, pincode, is_default)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8,
		        NOT EXISTS (SELECT 1 FROM billing_addresses WHERE user_id = $2::uuid))
		RETURNING is_default, created_at, updated_at
	`, a.ID, a.UserID, a.Name, a.Phone, a.Address, a.City, a.State, a.Pincode,
	).Scan(&a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}
