package admin

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type Accounts interface {
	CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error)
	Promote(ctx context.Context, login string) (*models.User, error)
}

type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// Backend is what the commands operate on. DB may be nil in tests.
type Backend struct {
	DB       *sql.DB
	Migrator Migrator
	Accounts Accounts
	Pruner   Pruner
	Clock    auth.Clock
}

func (b *Backend) now() time.Time {
	if b.Clock == nil {
		return time.Now().UTC()
	}
	return b.Clock.Now()
}

func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// ConnectFunc opens a Backend. It is called once per command so that
// help output works without a database.
type ConnectFunc func(ctx context.Context) (*Backend, error)
