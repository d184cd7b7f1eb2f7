package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

// UpsertMagicToken replaces any previously issued token for the
// principal; only the newest link is ever valid.
func (s *Store) UpsertMagicToken(ctx context.Context, t *models.MagicToken) error {
	query := `
		INSERT INTO magic_tokens (principal_type, principal_id, token, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(principal_type, principal_id) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at, created_at = CURRENT_TIMESTAMP
	`
	_, err := s.DB.ExecContext(ctx, query, string(t.PrincipalType), t.PrincipalID, t.Token, t.ExpiresAt)
	return err
}

// GetMagicToken returns (nil, nil) when the principal has no token on
// file.
func (s *Store) GetMagicToken(ctx context.Context, pt models.PrincipalType, principalID int) (*models.MagicToken, error) {
	query := `SELECT principal_type, principal_id, token, expires_at, created_at FROM magic_tokens WHERE principal_type = ? AND principal_id = ?`
	row := s.DB.QueryRowContext(ctx, query, string(pt), principalID)

	var t models.MagicToken
	var ptRaw string
	if err := row.Scan(&ptRaw, &t.PrincipalID, &t.Token, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.PrincipalType = models.PrincipalType(ptRaw)
	return &t, nil
}

// DeleteMagicToken clears the stored token. Called immediately on
// successful verification, before the session is minted, to enforce
// single use.
func (s *Store) DeleteMagicToken(ctx context.Context, pt models.PrincipalType, principalID int) error {
	query := `DELETE FROM magic_tokens WHERE principal_type = ? AND principal_id = ?`
	_, err := s.DB.ExecContext(ctx, query, string(pt), principalID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	query := `INSERT INTO sessions (id, principal_type, principal_id, expires_at) VALUES (?, ?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, sess.ID, string(sess.PrincipalType), sess.PrincipalID, sess.ExpiresAt)
	return err
}

// GetSession returns (nil, nil) when the session id is unknown.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, principal_type, principal_id, expires_at, created_at FROM sessions WHERE id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	var sess models.Session
	var ptRaw string
	if err := row.Scan(&sess.ID, &ptRaw, &sess.PrincipalID, &sess.ExpiresAt, &sess.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sess.PrincipalType = models.PrincipalType(ptRaw)
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`
	_, err := s.DB.ExecContext(ctx, query, id)
	return err
}

// DeleteExpiredSessions is housekeeping run from cmd/cli.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
