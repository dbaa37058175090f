package batchyears

import (
	"context"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.BatchYear, error)
	GetByID(ctx context.Context, id string) (*models.BatchYear, error)
	Create(ctx context.Context, year int) (*models.BatchYear, error)
	Delete(ctx context.Context, id string) error
}
