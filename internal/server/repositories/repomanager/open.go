package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MemoryDSN selects the in-process store instead of PostgreSQL.
const MemoryDSN = "memory://"

var sqlOpen = sql.Open

// Open connects to the store named by dsn and returns the matching
// RepositoryManager. For MemoryDSN the returned *sql.DB is nil.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	if strings.HasPrefix(dsn, MemoryDSN) {
		return nil, NewInMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, NewPostgresRepositoryManager(), nil
}
