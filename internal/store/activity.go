package store

import (
	"context"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (s *Store) ListOrderActivity(ctx context.Context, orderID int) ([]models.OrderActivity, error) {
	query := `SELECT id, order_id, from_status, to_status, actor, created_at FROM order_activity WHERE order_id = ? ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []models.OrderActivity
	for rows.Next() {
		var a models.OrderActivity
		if err := rows.Scan(&a.ID, &a.OrderID, &a.From, &a.To, &a.Actor, &a.CreatedAt); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
