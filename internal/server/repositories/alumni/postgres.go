// Package alumni stores alumna records in PostgreSQL.
package alumni

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/dbx"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

const selectAlumni = `SELECT a.id, a.prefix, a.first_name, a.middle_name, a.last_name,
	COALESCE(a.email, ''), a.contact_number, a.batch_year_id, b.year,
	a.student_picture, a.current_picture, a.created_at
	FROM alumni a JOIN batch_years b ON b.id = a.batch_year_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a and fills ID and CreatedAt. An email already used by
// another alumna yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Alumna) (*models.Alumna, error) {
	query :=
		`INSERT INTO alumni (prefix, first_name, middle_name, last_name, email, contact_number,
		                     batch_year_id, student_picture, current_picture)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		 RETURNING id, created_at`

	a.Email = strings.ToLower(a.Email)

	err := r.db.QueryRowContext(ctx, query,
		a.Prefix, a.FirstName, a.MiddleName, a.LastName, a.Email, a.ContactNumber,
		a.BatchYearID, a.StudentPicture, a.CurrentPicture).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Update overwrites every editable column of the record with id a.ID.
func (r *PostgresRepository) Update(ctx context.Context, a *models.Alumna) error {
	query :=
		`UPDATE alumni SET prefix = $2, first_name = $3, middle_name = $4, last_name = $5,
		        email = NULLIF($6, ''), contact_number = $7, batch_year_id = $8,
		        student_picture = $9, current_picture = $10
		 WHERE id = $1`

	a.Email = strings.ToLower(a.Email)

	res, err := r.db.ExecContext(ctx, query, a.ID,
		a.Prefix, a.FirstName, a.MiddleName, a.LastName, a.Email, a.ContactNumber,
		a.BatchYearID, a.StudentPicture, a.CurrentPicture)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepository) UpdateCurrentPicture(ctx context.Context, id, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alumni SET current_picture = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Alumna, error) {
	a, err := scanAlumna(r.db.QueryRowContext(ctx, selectAlumni+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alumni WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

// Search lists alumni matching f, ordered by batch year (newest first) and
// then by name.
func (r *PostgresRepository) Search(ctx context.Context, f models.AlumnaFilter) ([]*models.Alumna, error) {
	query, args := buildSearch(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Alumna{}
	for rows.Next() {
		a, err := scanAlumna(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func buildSearch(f models.AlumnaFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Name != "" {
		p := next(dbx.LikePattern(f.Name))
		where = append(where, fmt.Sprintf(
			`(a.first_name ILIKE %[1]s OR a.middle_name ILIKE %[1]s OR a.last_name ILIKE %[1]s`+
				` OR (a.first_name || ' ' || a.last_name) ILIKE %[1]s`+
				` OR (a.first_name || ' ' || a.middle_name || ' ' || a.last_name) ILIKE %[1]s)`, p))
	}
	if f.Email != "" {
		where = append(where, "a.email ILIKE "+next(dbx.LikePattern(f.Email)))
	}
	if f.ContactNumber != "" {
		where = append(where, "a.contact_number ILIKE "+next(dbx.LikePattern(f.ContactNumber)))
	}
	if f.Prefix != "" {
		where = append(where, "a.prefix = "+next(f.Prefix))
	}
	if f.BatchYearID != "" {
		where = append(where, "a.batch_year_id = "+next(f.BatchYearID))
	}
	if f.YearFrom != 0 {
		where = append(where, "b.year >= "+next(f.YearFrom))
	}
	if f.YearTo != 0 {
		where = append(where, "b.year <= "+next(f.YearTo))
	}

	var sb strings.Builder
	sb.WriteString(selectAlumni)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY b.year DESC, a.last_name ASC, a.first_name ASC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + next(f.Limit))
	}
	return sb.String(), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlumna(s scanner) (*models.Alumna, error) {
	a := &models.Alumna{}
	err := s.Scan(&a.ID, &a.Prefix, &a.FirstName, &a.MiddleName, &a.LastName,
		&a.Email, &a.ContactNumber, &a.BatchYearID, &a.BatchYear,
		&a.StudentPicture, &a.CurrentPicture, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
