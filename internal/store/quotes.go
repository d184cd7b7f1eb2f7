package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

const quoteColumns = `
	q.id, q.customer_id, c.name, c.email, q.product_type, q.quantity, q.description,
	q.turnaround, q.delivery_method, q.status, q.price, q.admin_notes,
	COALESCE(q.order_number, ''), COALESCE(q.customer_token, ''), q.token_expiry,
	q.response_sent_at, q.accepted_at, q.completed_at, q.created_at
`

func scanQuote(row interface{ Scan(...any) error }) (*models.Quote, error) {
	var q models.Quote
	var status string
	var tokenExpiry, responseSentAt, acceptedAt, completedAt sql.NullTime
	err := row.Scan(&q.ID, &q.CustomerID, &q.CustomerName, &q.CustomerEmail, &q.ProductType, &q.Quantity, &q.Description,
		&q.Turnaround, &q.DeliveryMethod, &status, &q.Price, &q.AdminNotes,
		&q.OrderNumber, &q.CustomerToken, &tokenExpiry,
		&responseSentAt, &acceptedAt, &completedAt, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = models.NormalizeQuoteStatus(status)
	if tokenExpiry.Valid {
		q.TokenExpiry = tokenExpiry.Time
	}
	q.ResponseSentAt = nullTimePtr(responseSentAt)
	q.AcceptedAt = nullTimePtr(acceptedAt)
	q.CompletedAt = nullTimePtr(completedAt)
	return &q, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (s *Store) CreateQuote(ctx context.Context, q *models.Quote) error {
	query := `
		INSERT INTO quotes (customer_id, product_type, quantity, description, turnaround, delivery_method, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.DB.ExecContext(ctx, query, q.CustomerID, q.ProductType, q.Quantity, q.Description, q.Turnaround, q.DeliveryMethod, string(q.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = int(id)
	return nil
}

func (s *Store) GetQuoteByID(ctx context.Context, id int) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q JOIN customers c ON q.customer_id = c.id WHERE q.id = ?`
	return scanQuote(s.DB.QueryRowContext(ctx, query, id))
}

func (s *Store) GetQuoteByToken(ctx context.Context, token string) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q JOIN customers c ON q.customer_id = c.id WHERE q.customer_token = ?`
	return scanQuote(s.DB.QueryRowContext(ctx, query, token))
}

func (s *Store) ListQuotes(ctx context.Context, status string, limit, offset int) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q JOIN customers c ON q.customer_id = c.id`
	args := []any{}
	if status != "" {
		query += ` WHERE q.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY q.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func (s *Store) CountQuotes(ctx context.Context, status string) (int, error) {
	query := `SELECT COUNT(*) FROM quotes`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	var count int
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (s *Store) ListQuotesByCustomer(ctx context.Context, customerID int) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q JOIN customers c ON q.customer_id = c.id WHERE q.customer_id = ? ORDER BY q.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// MarkQuoteQuoted applies the pricing side effects in one statement:
// price, notes, the single-use viewing token and its expiry, and the
// response timestamp.
func (s *Store) MarkQuoteQuoted(ctx context.Context, id int, price float64, adminNotes, token string, tokenExpiry, sentAt time.Time) error {
	query := `UPDATE quotes SET status = ?, price = ?, admin_notes = ?, customer_token = ?, token_expiry = ?, response_sent_at = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(models.QuoteQuoted), price, adminNotes, token, tokenExpiry, sentAt, id)
	return err
}

func (s *Store) MarkQuoteAccepted(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE quotes SET status = ?, accepted_at = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(models.QuoteAccepted), at, id)
	return err
}

func (s *Store) MarkQuoteDeclined(ctx context.Context, id int) error {
	query := `UPDATE quotes SET status = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(models.QuoteDeclined), id)
	return err
}

// UpdateQuoteStatus is the admin override path; it does not touch
// timestamps or tokens.
func (s *Store) UpdateQuoteStatus(ctx context.Context, id int, status models.QuoteStatus) error {
	query := `UPDATE quotes SET status = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(status), id)
	return err
}

// BackfillQuoteNumbers copies the order's display number onto quotes
// promoted before the mirror existed. The allocator reads the quote
// sequence too, so legacy rows without the mirror can under-count the
// month's maximum. Returns how many quotes were updated.
func (s *Store) BackfillQuoteNumbers(ctx context.Context) (int, error) {
	query := `UPDATE quotes
		SET order_number = (SELECT o.order_number FROM orders o WHERE o.quote_id = quotes.id)
		WHERE (order_number IS NULL OR order_number = '')
		AND id IN (SELECT quote_id FROM orders WHERE quote_id IS NOT NULL)`
	res, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// MaxQuoteNumberSuffix returns the highest numeric sequence suffix
// among quote display numbers carrying the given month prefix, 0 when
// none exist. Quotes may hold a pre-allocated order number, so the
// allocator consults this sequence as well as the orders table.
func (s *Store) MaxQuoteNumberSuffix(ctx context.Context, prefix string) (int, error) {
	query := `SELECT COALESCE(MAX(CAST(SUBSTR(order_number, ?) AS INTEGER)), 0) FROM quotes WHERE order_number LIKE ? || '%'`
	var max int
	err := s.DB.QueryRowContext(ctx, query, len(prefix)+1, prefix).Scan(&max)
	return max, err
}
