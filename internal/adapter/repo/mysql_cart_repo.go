package repo

import (
	"context"
	"database/sql"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

type MySQLCartRepo struct{ db *sql.DB }

func NewMySQLCartRepo(db *sql.DB) *MySQLCartRepo { return &MySQLCartRepo{db: db} }

// ItemsForUser joins cart rows with the live catalog price. Checkout copies
// these prices into order_items; after that the catalog can change freely.
func (r *MySQLCartRepo) ItemsForUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.product_id, p.name, c.quantity, p.price_cents
FROM cart_items c
JOIN products p ON p.id = c.product_id
WHERE c.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *MySQLCartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}

var _ usecase.CartRepo = (*MySQLCartRepo)(nil)
