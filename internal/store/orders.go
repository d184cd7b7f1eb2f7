package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

const orderColumns = `
	o.id, o.order_number, o.customer_id, o.quote_id, c.name, c.email,
	o.project_description, o.material, o.quantity, o.price, o.status, o.payment_status,
	o.delivery_method, o.delivery_notes, o.production_notes,
	o.due_date, o.completed_at, o.receipt_sent_at, o.created_at, o.updated_at
`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	var status, payment string
	var quoteID sql.NullInt64
	var dueDate, completedAt, receiptSentAt sql.NullTime
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &quoteID, &o.CustomerName, &o.CustomerEmail,
		&o.ProjectDescription, &o.Material, &o.Quantity, &o.Price, &status, &payment,
		&o.DeliveryMethod, &o.DeliveryNotes, &o.ProductionNotes,
		&dueDate, &completedAt, &receiptSentAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = models.NormalizeOrderStatus(status)
	o.PaymentStatus = models.NormalizePaymentStatus(payment)
	if quoteID.Valid {
		v := int(quoteID.Int64)
		o.QuoteID = &v
	}
	o.DueDate = nullTimePtr(dueDate)
	o.CompletedAt = nullTimePtr(completedAt)
	o.ReceiptSentAt = nullTimePtr(receiptSentAt)
	return &o, nil
}

// CreateOrder inserts the order and, when it originates from a quote,
// flips the source quote to accepted and mirrors the allocated number
// onto it, all in one transaction. The UNIQUE constraints on
// order_number and quote_id are the backstop against a concurrent
// promotion allocating the same number or re-promoting the same quote.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (order_number, customer_id, quote_id, project_description, material, quantity, price,
				status, payment_status, delivery_method, delivery_notes, production_notes, due_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		var quoteID any
		if o.QuoteID != nil {
			quoteID = *o.QuoteID
		}
		res, err := tx.ExecContext(ctx, query, o.OrderNumber, o.CustomerID, quoteID, o.ProjectDescription, o.Material,
			o.Quantity, o.Price, string(o.Status), string(o.PaymentStatus), o.DeliveryMethod, o.DeliveryNotes, o.ProductionNotes, o.DueDate)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		o.ID = int(id)

		if o.QuoteID != nil {
			at := time.Now()
			if _, err := tx.ExecContext(ctx,
				`UPDATE quotes SET status = ?, order_number = ?, accepted_at = COALESCE(accepted_at, ?) WHERE id = ?`,
				string(models.QuoteAccepted), o.OrderNumber, at, *o.QuoteID); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_activity (order_id, from_status, to_status, actor) VALUES (?, '', ?, ?)`,
			o.ID, string(o.Status), "admin")
		return err
	})
}

func (s *Store) GetOrderByID(ctx context.Context, id int) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.id = ?`
	return scanOrder(s.DB.QueryRowContext(ctx, query, id))
}

// GetOrderByQuoteID returns (nil, nil) when the quote was never
// promoted.
func (s *Store) GetOrderByQuoteID(ctx context.Context, quoteID int) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.quote_id = ?`
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, quoteID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON o.customer_id = c.id ORDER BY o.created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.customer_id = ? ORDER BY o.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}

// ChangeOrderStatus updates the status and appends the activity row in
// one transaction. completed_at is set exactly when the new status is
// completed, and cleared when an order is reopened.
func (s *Store) ChangeOrderStatus(ctx context.Context, id int, from, to models.OrderStatus, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var completedAt any
		if to == models.OrderCompleted {
			completedAt = at
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
			string(to), completedAt, at, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_activity (order_id, from_status, to_status, actor) VALUES (?, ?, ?, ?)`,
			id, string(from), string(to), "admin")
		return err
	})
}

func (s *Store) MarkOrderPaid(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(models.PaymentPaid), at, id)
	return err
}

func (s *Store) SetOrderReceiptSentAt(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE orders SET receipt_sent_at = ?, updated_at = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, at, at, id)
	return err
}

func (s *Store) UpdateOrderDetails(ctx context.Context, o *models.Order) error {
	query := `UPDATE orders SET project_description = ?, material = ?, quantity = ?, price = ?, delivery_method = ?, delivery_notes = ?, production_notes = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, o.ProjectDescription, o.Material, o.Quantity, o.Price, o.DeliveryMethod, o.DeliveryNotes, o.ProductionNotes, o.DueDate, o.ID)
	return err
}

// MaxOrderNumberSuffix returns the highest numeric sequence suffix
// among order numbers carrying the given month prefix, 0 when none
// exist. The LIKE prefix match is safe because the suffix is
// fixed-width and zero-padded.
func (s *Store) MaxOrderNumberSuffix(ctx context.Context, prefix string) (int, error) {
	query := `SELECT COALESCE(MAX(CAST(SUBSTR(order_number, ?) AS INTEGER)), 0) FROM orders WHERE order_number LIKE ? || '%'`
	var max int
	err := s.DB.QueryRowContext(ctx, query, len(prefix)+1, prefix).Scan(&max)
	return max, err
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure
// on the named column (e.g. "orders.order_number").
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
