package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cfg   *config.Config
	rm    repomanager.RepositoryManager
	users *UserService
	tasks *TaskService
	guard *Guard
	clock *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour}
	rm := repomanager.NewInMemoryRepositoryManager()
	clock := &fakeClock{t: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}

	ts := NewTaskService(nil, rm)
	ts.now = clock.Now

	return &testEnv{
		cfg:   cfg,
		rm:    rm,
		users: NewUserService(nil, rm, cfg),
		tasks: ts,
		guard: NewGuard(nil, rm, cfg),
		clock: clock,
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), models.UserCreate{Email: email, Password: "password123"})
	require.NoError(t, err)
	return u
}

func (e *testEnv) superuser(t *testing.T, email string) *models.User {
	t.Helper()
	u, created, err := e.users.EnsureSuperuser(context.Background(), email, "password123")
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func strPtr(s string) *string { return &s }
