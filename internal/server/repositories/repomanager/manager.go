package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a
// transaction, so that services choose the unit of work per call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
