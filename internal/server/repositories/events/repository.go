package events

import (
	"context"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Event, error)
	Search(ctx context.Context, f models.EventFilter) ([]*models.Event, error)
}
