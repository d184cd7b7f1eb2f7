package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (s *Store) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	query := `INSERT INTO receipts (id, order_id, receipt_number, amount, sent_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, r.ID, r.OrderID, r.ReceiptNumber, r.Amount, r.SentAt)
	return err
}

// LatestReceiptByOrder returns (nil, nil) when the order has no
// receipt yet.
func (s *Store) LatestReceiptByOrder(ctx context.Context, orderID int) (*models.Receipt, error) {
	query := `SELECT id, order_id, receipt_number, amount, sent_at, created_at FROM receipts WHERE order_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, orderID)

	var r models.Receipt
	var sentAt sql.NullTime
	if err := row.Scan(&r.ID, &r.OrderID, &r.ReceiptNumber, &r.Amount, &sentAt, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.SentAt = nullTimePtr(sentAt)
	return &r, nil
}

func (s *Store) MarkReceiptSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE receipts SET sent_at = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, at, id)
	return err
}
