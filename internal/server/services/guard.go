package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/auth"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
)

// Guard turns a bearer token into the acting user.
type Guard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
}

func NewGuard(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *Guard {
	return &Guard{db: db, repomanager: m, jwtSecret: []byte(cfg.SecretKey)}
}

// Authenticate verifies token and loads its subject. A bad or expired token
// and a token for a user that no longer exists are indistinguishable to the
// caller (ErrorUnauthorized); an inactive user gets ErrorForbidden.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, g.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("could not validate credentials: %w", common.ErrorUnauthorized)
	}

	user, err := g.repomanager.Users(g.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("could not validate credentials: %w", common.ErrorUnauthorized)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("inactive user: %w", common.ErrorForbidden)
	}
	return user, nil
}

// RequireSelfOrPrivileged allows actor to act on a record owned by ownerID.
func RequireSelfOrPrivileged(actor *models.User, ownerID string) error {
	if actor != nil && (actor.ID == ownerID || actor.IsSuperuser) {
		return nil
	}
	return fmt.Errorf("not enough permissions: %w", common.ErrorForbidden)
}
