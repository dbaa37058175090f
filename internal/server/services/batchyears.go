package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/dbx"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
)

// MinYear is the earliest accepted graduation year. The latest is five
// years past the current one.
const MinYear = 1900

type BatchYearService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       auth.Clock
	logger      logging.Logger
}

func NewBatchYearService(db *sql.DB, m repomanager.RepositoryManager, clock auth.Clock, logger logging.Logger) *BatchYearService {
	if clock == nil {
		clock = auth.SystemClock{}
	}
	return &BatchYearService{db: db, repomanager: m, clock: clock, logger: logger.With("module", "batchyears")}
}

// List returns every batch year, newest first.
func (s *BatchYearService) List(ctx context.Context) ([]*models.BatchYear, error) {
	years, err := s.repomanager.BatchYears(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list batch years", "error", err)
		return nil, common.ErrorInternal
	}
	return years, nil
}

func (s *BatchYearService) Create(ctx context.Context, year int) (*models.BatchYear, error) {
	if err := checkYear(year, s.clock); err != nil {
		return nil, err
	}

	b, err := s.repomanager.BatchYears(s.db).Create(ctx, year)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: batch year already exists", common.ErrorAlreadyExists)
		}
		s.logger.Error(ctx, "create batch year", "year", year, "error", err)
		return nil, common.ErrorInternal
	}
	return b, nil
}

// Delete removes a batch year that no alumna refers to.
func (s *BatchYearService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	err := s.repomanager.BatchYears(s.db).Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: cannot delete a batch year that still has alumni", common.ErrValidation)
	default:
		s.logger.Error(ctx, "delete batch year", "id", id, "error", err)
		return common.ErrorInternal
	}
}

func checkYear(year int, clock auth.Clock) error {
	maxYear := clock.Now().Year() + 5
	if year < MinYear || year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d", common.ErrValidation, MinYear, maxYear)
	}
	return nil
}
