// Package batchyears stores graduation years in PostgreSQL.
package batchyears

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/dbx"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all batch years, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.BatchYear, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, year, created_at FROM batch_years ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.BatchYear{}
	for rows.Next() {
		b := &models.BatchYear{}
		if err := rows.Scan(&b.ID, &b.Year, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.BatchYear, error) {
	b := &models.BatchYear{}
	err := r.db.QueryRowContext(ctx, `SELECT id, year, created_at FROM batch_years WHERE id = $1`, id).
		Scan(&b.ID, &b.Year, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// Create inserts year. An existing year yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, year int) (*models.BatchYear, error) {
	b := &models.BatchYear{Year: year}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO batch_years (year) VALUES ($1) RETURNING id, created_at`, year).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// Delete removes the batch year. A year still referenced by alumni fails
// with a foreign key violation wrapped in the returned error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM batch_years WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
