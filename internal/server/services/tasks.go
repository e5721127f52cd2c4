package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/tasks"
)

// TaskService is the access-controlled front of the task store: every
// operation on an existing task first checks that the actor owns it or is a
// superuser.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m, now: time.Now}
}

// Create stores a task owned by actor. Status and priority default to todo
// and medium.
func (s *TaskService) Create(ctx context.Context, actor *models.User, in models.TaskCreate) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.Normalize()

	now := s.now().UTC()
	task := &models.Task{
		OwnerID:     actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return created, nil
}

// List returns a window of the actor's own tasks. Superusers see only their
// own tasks here as well.
func (s *TaskService) List(ctx context.Context, actor *models.User, skip, limit int) (*models.TaskPage, error) {
	if err := common.ValidateWindow(skip, limit); err != nil {
		return nil, err
	}

	items, total, err := s.repomanager.Tasks(s.db).ListByOwner(ctx, actor.ID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return &models.TaskPage{Items: items, Count: total}, nil
}

func (s *TaskService) Get(ctx context.Context, actor *models.User, id string) (*models.Task, error) {
	return s.loadOwned(ctx, s.repomanager.Tasks(s.db), actor, id)
}

// Update applies a partial update. An update with no fields returns the task
// as stored, with updated_at untouched.
func (s *TaskService) Update(ctx context.Context, actor *models.User, id string, in models.TaskUpdate) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Task
	err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := s.loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if in.Empty() {
			updated = task
			return nil
		}

		updated, err = repo.Update(ctx, id, in, s.now().UTC())
		if err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *models.User, id string) error {
	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		if _, err := s.loadOwned(ctx, repo, actor, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting task: %w", err)
		}
		return nil
	})
}

// loadOwned fetches the task and checks access. Absence is reported before
// ownership, so a missing task is always ErrorNotFound.
func (s *TaskService) loadOwned(ctx context.Context, repo tasks.Repository, actor *models.User, id string) (*models.Task, error) {
	task, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error searching task: %w", err)
	}
	if err := RequireSelfOrPrivileged(actor, task.OwnerID); err != nil {
		return nil, err
	}
	return task, nil
}
