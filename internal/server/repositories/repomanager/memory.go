package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/users"
)

// InMemoryRepositoryManager ignores the DBTX it is handed; every repository
// shares one memory.Store.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *InMemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository {
	return m.store.Tasks()
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}
