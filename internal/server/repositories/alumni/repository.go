package alumni

import (
	"context"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Alumna) (*models.Alumna, error)
	Update(ctx context.Context, a *models.Alumna) error
	UpdateCurrentPicture(ctx context.Context, id, key string) error
	GetByID(ctx context.Context, id string) (*models.Alumna, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, f models.AlumnaFilter) ([]*models.Alumna, error)
}
