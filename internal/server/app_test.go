package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskline/internal/logging"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = repomanager.MemoryDSN
	c.EndpointAddr = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.S3Bucket = ""
	c.SecretKey = "test-secret"
	return c
}

func TestNewApp_MemoryBackendBootstrapsSuperuser(t *testing.T) {
	c := testConfig()
	c.FirstSuperuserEmail = "admin@example.com"
	c.FirstSuperuserPassword = "password123"

	app, err := newApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)
	assert.Nil(t, app.db)

	token, err := app.userService.Login(context.Background(), "admin@example.com", "password123")
	require.NoError(t, err)

	user, err := app.guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)

	// a second bootstrap leaves the account alone
	require.NoError(t, app.bootstrapSuperuser(context.Background()))
}

func TestNewApp_RejectsPlaceholderSecretOutsideLocal(t *testing.T) {
	c := testConfig()
	c.Environment = "production"
	c.SecretKey = "changethis"

	_, err := newApp(context.Background(), c, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestNewApp_RejectsEmptySecret(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := newApp(context.Background(), c, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY must be set")
}

func TestNewApp_InvalidSuperuserPassword(t *testing.T) {
	c := testConfig()
	c.FirstSuperuserEmail = "admin@example.com"
	c.FirstSuperuserPassword = "short"

	_, err := newApp(context.Background(), c, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first superuser")
}

func TestApp_HandlerServesHealthAndDisabledIntegrations(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	h := app.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ProjectName)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mirror/users", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
