package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/alumnae/internal/dbx"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/alumni"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/batchyears"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/events"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
	BatchYears(db dbx.DBTX) batchyears.Repository
	Alumni(db dbx.DBTX) alumni.Repository
	Events(db dbx.DBTX) events.Repository
}
