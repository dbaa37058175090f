// Package events stores event announcements in PostgreSQL.
package events

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

const selectEvents = `SELECT e.id, e.title, e.description, e.event_date, e.event_time, e.location,
	e.details_url, e.organizer_name, e.organizer_email, e.organizer_phone, e.audience,
	e.batch_year, e.group_name, e.created_by, COALESCE(u.username, ''), e.created_at, e.updated_at
	FROM events e LEFT JOIN users u ON u.id = e.created_by`

const orderEvents = ` ORDER BY e.event_date ASC, e.event_time ASC`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (title, description, event_date, event_time, location, details_url,
		                     organizer_name, organizer_email, organizer_phone, audience,
		                     batch_year, group_name, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.DetailsURL,
		e.OrganizerName, e.OrganizerEmail, e.OrganizerPhone, e.Audience,
		nullInt(e.BatchYear), e.GroupName, e.CreatedBy).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Update overwrites the editable columns and bumps updated_at. The creator is kept.
func (r *PostgresRepository) Update(ctx context.Context, e *models.Event) error {
	query :=
		`UPDATE events SET title = $2, description = $3, event_date = $4, event_time = $5,
		        location = $6, details_url = $7, organizer_name = $8, organizer_email = $9,
		        organizer_phone = $10, audience = $11, batch_year = $12, group_name = $13,
		        updated_at = now()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, e.ID,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.DetailsURL,
		e.OrganizerName, e.OrganizerEmail, e.OrganizerPhone, e.Audience,
		nullInt(e.BatchYear), e.GroupName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, selectEvents+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

// List returns all events in chronological order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+orderEvents)
}

// Search returns events matching f in chronological order. Without f.Year
// only events dated on or after f.From are considered.
func (r *PostgresRepository) Search(ctx context.Context, f models.EventFilter) ([]*models.Event, error) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Keyword != "" {
		p := next(dbx.LikePattern(f.Keyword))
		where = append(where, fmt.Sprintf(
			`(e.title ILIKE %[1]s OR e.description ILIKE %[1]s OR e.location ILIKE %[1]s OR e.organizer_name ILIKE %[1]s)`, p))
	}
	if f.Year != 0 {
		where = append(where, "EXTRACT(YEAR FROM e.event_date) = "+next(f.Year))
	} else {
		where = append(where, "e.event_date >= "+next(f.From))
	}
	if f.Location != "" {
		where = append(where, "e.location ILIKE "+next(dbx.LikePattern(f.Location)))
	}
	if f.BatchYear != 0 {
		where = append(where, "e.batch_year = "+next(f.BatchYear))
	}

	query := selectEvents + " WHERE " + strings.Join(where, " AND ") + orderEvents
	return r.query(ctx, query, args...)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.Event, error) {
	e := &models.Event{}
	var batchYear sql.NullInt64
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.DetailsURL, &e.OrganizerName, &e.OrganizerEmail, &e.OrganizerPhone, &e.Audience,
		&batchYear, &e.GroupName, &e.CreatedBy, &e.CreatedByUsername, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if batchYear.Valid {
		y := int(batchYear.Int64)
		e.BatchYear = &y
	}
	return e, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
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
