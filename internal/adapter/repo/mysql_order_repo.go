package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) CreateWithItems(ctx context.Context, o *domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id,user_id,email,status,amount_cents,currency,
                    ship_name,ship_phone,ship_line1,ship_line2,ship_city,ship_state,ship_method,
                    created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		o.ID, o.UserID, o.Email, o.Status, o.Amount.Cents, o.Amount.Currency,
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Line1, o.Shipping.Line2,
		o.Shipping.City, o.Shipping.State, o.Shipping.Method)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO order_items (order_id,product_id,name,quantity,unit_price_cents)
VALUES (?,?,?,?,?)`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPriceCents)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.ProductID, err)
		}
	}

	return tx.Commit()
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,user_id,email,status,amount_cents,currency,
       ship_name,ship_phone,ship_line1,ship_line2,ship_city,ship_state,ship_method,
       created_at,updated_at
FROM orders WHERE id=?`, id)

	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.Status, &o.Amount.Cents, &o.Amount.Currency,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Line1, &o.Shipping.Line2,
		&o.Shipping.City, &o.Shipping.State, &o.Shipping.Method,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepo) ItemsByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT order_id,product_id,name,quantity,unit_price_cents
FROM order_items WHERE order_id=?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id,user_id,email,status,amount_cents,currency,
       ship_name,ship_phone,ship_line1,ship_line2,ship_city,ship_state,ship_method,
       created_at,updated_at
FROM orders WHERE user_id=? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Email, &o.Status, &o.Amount.Cents, &o.Amount.Currency,
			&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Line1, &o.Shipping.Line2,
			&o.Shipping.City, &o.Shipping.State, &o.Shipping.Method,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatusIf is the single atomic read-modify-write on order status:
// one guarded UPDATE, so two racing callers cannot both believe they won.
func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
