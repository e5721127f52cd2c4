// Package memory keeps users and tasks in process memory. It backs the
// "memory://" DSN used for local runs and service tests, and mirrors the
// database constraints: unique email and cascading task deletion.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/google/uuid"
)

// Store is shared by the user and task repositories so that deletes can
// cascade across both.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
	tasks map[string]*models.Task
	last  time.Time
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*models.User),
		tasks: make(map[string]*models.Task),
		now:   time.Now,
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// createdAt returns a strictly increasing timestamp so that creation order is
// stable even when the clock does not advance between inserts.
func (s *Store) createdAt() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.FullName != nil {
		v := *u.FullName
		c.FullName = &v
	}
	return &c
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	if t.Description != nil {
		v := *t.Description
		c.Description = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.AttachmentKey != nil {
		v := *t.AttachmentKey
		c.AttachmentKey = &v
	}
	return &c
}

func window[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return make([]T, 0)
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return append(make([]T, 0, end-skip), items[skip:end]...)
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.createdAt()
	r.s.users[user.ID] = copyUser(user)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.Email.Present() {
		for _, other := range r.s.users {
			if other.ID != id && other.Email == patch.Email.Value {
				return nil, common.ErrorConflict
			}
		}
	}
	u.Apply(patch)
	return copyUser(u), nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*models.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, copyUser(u))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, skip, limit), len(all), nil
}

// Delete removes the user and every task they own.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	for tid, t := range r.s.tasks {
		if t.OwnerID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

type TaskRepository struct {
	s *Store
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[task.OwnerID]; !ok {
		return nil, common.ErrorNotFound
	}
	task.ID = uuid.NewString()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.s.createdAt()
	}
	task.UpdatedAt = task.CreatedAt
	r.s.tasks[task.ID] = copyTask(task)
	return task, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyTask(t), nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]*models.Task, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owned := make([]*models.Task, 0)
	for _, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			owned = append(owned, copyTask(t))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.Before(owned[j].CreatedAt)
		}
		return owned[i].ID < owned[j].ID
	})
	return window(owned, skip, limit), len(owned), nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, update models.TaskUpdate, now time.Time) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t.Apply(update, now)
	return copyTask(t), nil
}

func (r *TaskRepository) SetAttachmentKey(ctx context.Context, id string, key string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return common.ErrorNotFound
	}
	t.AttachmentKey = &key
	t.UpdatedAt = now
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	return nil
}
