package store

import (
	"context"
	"database/sql"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, company, address, city, province, postal, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.DB.ExecContext(ctx, query, c.Name, c.Email, c.Phone, c.Company, c.Address, c.City, c.Province, c.Postal, c.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = int(id)
	return nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	query := `SELECT id, name, email, phone, company, address, city, province, postal, notes, created_at FROM customers WHERE id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.City, &c.Province, &c.Postal, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomerByEmail is case-insensitive and returns (nil, nil) when
// no customer exists, so callers can branch without errors.Is checks.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT id, name, email, phone, company, address, city, province, postal, notes, created_at FROM customers WHERE LOWER(email) = LOWER(?) ORDER BY id LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, email)

	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.City, &c.Province, &c.Postal, &c.Notes, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := `UPDATE customers SET name = ?, email = ?, phone = ?, company = ?, address = ?, city = ?, province = ?, postal = ?, notes = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, c.Name, c.Email, c.Phone, c.Company, c.Address, c.City, c.Province, c.Postal, c.Notes, c.ID)
	return err
}

func (s *Store) ListCustomers(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	query := `SELECT id, name, email, phone, company, address, city, province, postal, notes, created_at FROM customers ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.City, &c.Province, &c.Postal, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count)
	return count, err
}
