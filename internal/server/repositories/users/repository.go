package users

import (
	"context"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	SaveLoginState(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
}
