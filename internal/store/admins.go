package store

import (
	"context"
	"database/sql"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

// GetAdminByEmail returns (nil, nil) when no admin exists, so the
// login path can answer generically without leaking existence.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	query := `SELECT id, name, email, password, created_at FROM admin_users WHERE LOWER(email) = LOWER(?)`
	row := s.DB.QueryRowContext(ctx, query, email)

	var a models.AdminUser
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAdminByID(ctx context.Context, id int) (*models.AdminUser, error) {
	query := `SELECT id, name, email, password, created_at FROM admin_users WHERE id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var a models.AdminUser
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdmin is mainly for seeding via cmd/cli.
func (s *Store) CreateAdmin(ctx context.Context, name, email, hashedPassword string) error {
	query := `INSERT INTO admin_users (name, email, password) VALUES (?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, name, email, hashedPassword)
	return err
}
