package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeTasksRepo struct {
	task      *models.Task
	getErr    error
	updateErr error
	deleted   bool
	bound     []dbx.DBTX
}

func (f *fakeTasksRepo) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	return t, nil
}
func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c := *f.task
	return &c, nil
}
func (f *fakeTasksRepo) ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]*models.Task, int, error) {
	return nil, 0, nil
}
func (f *fakeTasksRepo) Update(ctx context.Context, id string, u models.TaskUpdate, now time.Time) (*models.Task, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	c := *f.task
	c.Apply(u, now)
	return &c, nil
}
func (f *fakeTasksRepo) SetAttachmentKey(ctx context.Context, id, key string, now time.Time) error {
	f.task.AttachmentKey = &key
	return nil
}
func (f *fakeTasksRepo) Delete(ctx context.Context, id string) error {
	f.deleted = true
	return nil
}

type fakeUsersRepo struct {
	byEmail   *models.User
	getErr    error
	updateOut *models.User
	updated   bool
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}
func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, common.ErrorNotFound
}
func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.byEmail == nil {
		return nil, common.ErrorNotFound
	}
	return f.byEmail, nil
}
func (f *fakeUsersRepo) Update(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	f.updated = true
	return f.updateOut, nil
}
func (f *fakeUsersRepo) List(ctx context.Context, skip, limit int) ([]*models.User, int, error) {
	return nil, 0, nil
}
func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository {
	m.t.bound = append(m.t.bound, db)
	return m.t
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestTaskUpdate_CommitsTransaction(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{t: &fakeTasksRepo{task: &models.Task{ID: "t1", OwnerID: "u1", Title: "a"}}}
	s := NewTaskService(db, rm)

	got, err := s.Update(context.Background(), &models.User{ID: "u1"}, "t1", models.TaskUpdate{Title: models.Some("b")})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)

	require.Len(t, rm.t.bound, 1)
	_, isTx := rm.t.bound[0].(*sql.Tx)
	assert.True(t, isTx, "repository must be bound to the transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdate_RollsBackOnForbidden(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{t: &fakeTasksRepo{task: &models.Task{ID: "t1", OwnerID: "u1"}}}
	s := NewTaskService(db, rm)

	_, err := s.Update(context.Background(), &models.User{ID: "u2"}, "t1", models.TaskUpdate{Title: models.Some("b")})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdate_RepositoryError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{t: &fakeTasksRepo{task: &models.Task{ID: "t1", OwnerID: "u1"}, updateErr: errBoom{}}}
	s := NewTaskService(db, rm)

	_, err := s.Update(context.Background(), &models.User{ID: "u1"}, "t1", models.TaskUpdate{Title: models.Some("b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskDelete_BeginError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	rm := &fakeRepoManager{t: &fakeTasksRepo{task: &models.Task{ID: "t1", OwnerID: "u1"}}}
	s := NewTaskService(db, rm)

	err := s.Delete(context.Background(), &models.User{ID: "u1"}, "t1")
	require.Error(t, err)
	assert.False(t, rm.t.deleted)
}

func TestUpdateMe_ConflictRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: &models.User{ID: "other", Email: "taken@example.com"}}}
	s := NewUserService(db, rm, &config.Config{SecretKey: "k"})

	_, err := s.UpdateMe(context.Background(), &models.User{ID: "me", Email: "me@example.com"},
		models.UserUpdate{Email: models.Some("taken@example.com")})
	assert.ErrorIs(t, err, common.ErrorConflict)
	assert.False(t, rm.u.updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMe_LookupErrorIsNotConflict(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}}
	s := NewUserService(db, rm, &config.Config{SecretKey: "k"})

	_, err := s.UpdateMe(context.Background(), &models.User{ID: "me", Email: "me@example.com"},
		models.UserUpdate{Email: models.Some("new@example.com")})
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorConflict))
}

func TestLogin_RepositoryErrorIsNotUnauthorized(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}}
	s := NewUserService(nil, rm, &config.Config{SecretKey: "k"})

	_, err := s.Login(context.Background(), "a@example.com", "password123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))
}
