package store

import (
	"context"
	"database/sql"
)

type DashboardStats struct {
	TotalCustomers int
	TotalQuotes    int
	TotalOrders    int
	QuotesByStatus map[string]int
	OrdersByStatus map[string]int
	UnpaidOrders   int
	RevenuePaid    float64
}

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		QuotesByStatus: make(map[string]int),
		OrdersByStatus: make(map[string]int),
	}

	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&stats.TotalCustomers)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&stats.TotalQuotes)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if err := s.countByStatus(ctx, `SELECT status, COUNT(*) FROM quotes GROUP BY status`, stats.QuotesByStatus); err != nil {
		return nil, err
	}
	if err := s.countByStatus(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`, stats.OrdersByStatus); err != nil {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE payment_status = 'unpaid'`).Scan(&stats.UnpaidOrders)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(price), 0) FROM orders WHERE payment_status = 'paid'`).Scan(&stats.RevenuePaid)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return stats, nil
}

func (s *Store) countByStatus(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return err
		}
		into[status] = count
	}
	return rows.Err()
}
