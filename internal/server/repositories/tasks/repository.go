// Package tasks is the task store. It performs no access control; callers
// check ownership before reaching it.
package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// ListByOwner returns a window of the owner's tasks ordered by
	// (created_at, id) and the owner's total task count.
	ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]*models.Task, int, error)
	Update(ctx context.Context, id string, update models.TaskUpdate, now time.Time) (*models.Task, error)
	SetAttachmentKey(ctx context.Context, id string, key string, now time.Time) error
	Delete(ctx context.Context, id string) error
}
