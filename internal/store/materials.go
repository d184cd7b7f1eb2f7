package store

import (
	"context"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func (s *Store) CreateMaterial(ctx context.Context, m *models.Material) error {
	query := `INSERT INTO materials (name, description, base_price, image_url, status) VALUES (?, ?, ?, ?, ?)`
	res, err := s.DB.ExecContext(ctx, query, m.Name, m.Description, m.BasePrice, m.ImageURL, m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = int(id)
	return nil
}

func (s *Store) GetMaterialByID(ctx context.Context, id int) (*models.Material, error) {
	query := `SELECT id, name, description, base_price, image_url, COALESCE(status, 'available'), created_at FROM materials WHERE id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var m models.Material
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.BasePrice, &m.ImageURL, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPublicMaterials returns the catalog shown on the marketing
// pages; archived entries are hidden.
func (s *Store) ListPublicMaterials(ctx context.Context) ([]models.Material, error) {
	return s.listMaterials(ctx, `WHERE status = 'available'`)
}

func (s *Store) ListAllMaterials(ctx context.Context) ([]models.Material, error) {
	return s.listMaterials(ctx, ``)
}

func (s *Store) listMaterials(ctx context.Context, where string) ([]models.Material, error) {
	query := `SELECT id, name, description, base_price, image_url, COALESCE(status, 'available'), created_at FROM materials ` + where + ` ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []models.Material
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.BasePrice, &m.ImageURL, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) UpdateMaterial(ctx context.Context, m *models.Material) error {
	query := `UPDATE materials SET name = ?, description = ?, base_price = ?, status = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, m.Name, m.Description, m.BasePrice, m.Status, m.ID)
	return err
}

func (s *Store) UpdateMaterialImage(ctx context.Context, id int, imageURL string) error {
	query := `UPDATE materials SET image_url = ? WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, imageURL, id)
	return err
}

func (s *Store) ArchiveMaterial(ctx context.Context, id int) error {
	query := `UPDATE materials SET status = 'archived' WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, id)
	return err
}
