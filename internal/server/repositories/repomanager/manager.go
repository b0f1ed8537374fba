package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/procedures"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Procedures(db dbx.DBTX) procedures.Repository
}
