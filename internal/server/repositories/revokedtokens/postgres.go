// Package revokedtokens provides a PostgreSQL-backed store of session tokens
// that were invalidated before their natural expiry.
package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/alumnae/internal/dbx"
)

// PostgresRepository operates on the revoked_tokens table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert records token as revoked until expiresAt. Revoking a token twice is
// not an error.
func (r *PostgresRepository) Insert(ctx context.Context, token, userID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, token, userID, expiresAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IsRevoked reports whether token has an entry that is still in force at now.
func (r *PostgresRepository) IsRevoked(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token = $1 AND expires_at > $2
		)
	`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, token, now).Scan(&revoked); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

// DeleteExpired removes entries whose expiry is at or before now and reports
// how many were removed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM revoked_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
