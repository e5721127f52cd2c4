// Package users is the credential store: persistence of user identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskline/internal/server/models"
)

// Repository stores users. Lookups of unknown ids or emails return
// common.ErrorNotFound; a duplicate email returns common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, int, error)
	Delete(ctx context.Context, id string) error
}
