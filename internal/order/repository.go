package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrAssignmentConflict means at least one staged order could not take a
	// courier number (missing, or assigned in the meantime).
	ErrAssignmentConflict = errors.New("courier assignment conflict")
)

type Repository interface {
	// Insert writes the order header and its items on q, which is normally
	// a transaction owned by the caller.
	Insert(ctx context.Context, q db.Querier, o *Order) error
	GetByID(ctx context.Context, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAdmin(ctx context.Context, f Filter) ([]AdminView, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
	AssignCourierNumbers(ctx context.Context, assignments []Assignment) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `
	o.id::text, o.user_id::text, o.billing_name, o.billing_phone, o.billing_address,
	COALESCE(o.billing_city, ''), COALESCE(o.billing_state, ''), COALESCE(o.billing_pincode, ''),
	COALESCE(o.courier_no, ''), o.status, o.total_amount::text, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, extra ...any) (Order, error) {
	var (
		o      Order
		status string
		total  string
	)
	dest := []any{
		&o.ID, &o.UserID, &o.BillingName, &o.BillingPhone, &o.BillingAddress,
		&o.BillingCity, &o.BillingState, &o.BillingPincode,
		&o.CourierNo, &status, &total, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Order{}, err
	}

	amount, err := decimal.NewFromString(total)
	if err != nil {
		return Order{}, fmt.Errorf("parse total_amount %q: %w", total, err)
	}
	o.TotalAmount = amount
	o.Status = Status(status)
	return o, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, q db.Querier, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	err := q.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, billing_name, billing_phone, billing_address,
		                    billing_city, billing_state, billing_pincode, status, total_amount)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10::numeric)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.BillingName, o.BillingPhone, o.BillingAddress,
		o.BillingCity, o.BillingState, o.BillingPincode, string(o.Status), o.TotalAmount.StringFixed(2),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		it.CreatedAt = o.CreatedAt

		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_name, product_price, quantity, position)
			VALUES ($1::uuid, $2::uuid, $3, $4::numeric, $5, $6)
		`, it.ID, o.ID, it.ProductName, it.ProductPrice.StringFixed(2), it.Quantity, i)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1::uuid`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = itemsOrEmpty(items[o.ID])
	return o, nil
}

// ListByUser returns the user's orders newest first, with items.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = $1::uuid ORDER BY o.created_at DESC, o.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, nil
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsOrEmpty(items[orders[i].ID])
	}
	return orders, nil
}

// ListAdmin returns orders oldest first joined with the owning profile.
func (r *PostgresRepository) ListAdmin(ctx context.Context, f Filter) ([]AdminView, error) {
	var (
		where []string
		args  []any
	)
	if f.Unassigned {
		where = append(where, "o.courier_no IS NULL")
	}
	if f.Assigned {
		where = append(where, "o.courier_no IS NOT NULL")
	}
	if f.IDs != nil {
		args = append(args, f.IDs)
		where = append(where, fmt.Sprintf("o.id = ANY($%d::uuid[])", len(args)))
	}

	query := `SELECT ` + orderColumns + `,
		COALESCE(p.name, ''), COALESCE(p.email, ''), COALESCE(p.phone, '')
		FROM orders o LEFT JOIN profiles p ON p.id = o.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at ASC, o.id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select admin orders: %w", err)
	}
	defer rows.Close()

	views := []AdminView{}
	ids := []string{}
	for rows.Next() {
		var name, email, phone string
		o, err := scanOrder(rows, &name, &email, &phone)
		if err != nil {
			return nil, fmt.Errorf("scan admin order: %w", err)
		}
		views = append(views, AdminView{
			Order:       o,
			Customer:    newCustomer(o, name, email, phone),
			StatusLabel: o.Status.Label(),
		})
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return views, nil
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Items = itemsOrEmpty(items[views[i].ID])
		views[i].ItemCount = len(views[i].Items)
	}
	return views, nil
}

// loadItems groups items by order, each in the sequence they were placed.
func (r *PostgresRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, order_id::text, product_name, product_price::text, quantity, created_at
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position, created_at, id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &price, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		it.ProductPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse product_price %q: %w", price, err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1::uuid`,
		orderID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignCourierNumbers writes every assignment in one statement. The
// transaction is rolled back unless each staged order was updated, so a
// batch is applied completely or not at all.
func (r *PostgresRepository) AssignCourierNumbers(ctx context.Context, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	ids := make([]string, len(assignments))
	numbers := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.OrderID
		numbers[i] = a.CourierNo
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders AS o
			SET courier_no = u.courier_no, updated_at = now()
			FROM unnest($1::uuid[], $2::text[]) AS u(order_id, courier_no)
			WHERE o.id = u.order_id AND o.courier_no IS NULL
		`, ids, numbers)
		if err != nil {
			return fmt.Errorf("update courier numbers: %w", err)
		}
		if n := tag.RowsAffected(); n != int64(len(assignments)) {
			return fmt.Errorf("%w: updated %d of %d orders", ErrAssignmentConflict, n, len(assignments))
		}
		return nil
	})
}

func itemsOrEmpty(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	return items
}
