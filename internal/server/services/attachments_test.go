package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	putErr error
	getErr error
	keys   []string
}

func (p *fakePresigner) PresignPut(ctx context.Context, key string) (string, error) {
	if p.putErr != nil {
		return "", p.putErr
	}
	p.keys = append(p.keys, key)
	return "https://storage.example/put/" + key, nil
}

func (p *fakePresigner) PresignGet(ctx context.Context, key string) (string, error) {
	if p.getErr != nil {
		return "", p.getErr
	}
	return "https://storage.example/get/" + key, nil
}

func TestAttachments_UploadThenDownload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com")
	presigner := &fakePresigner{}
	svc := NewAttachmentService(nil, env.rm, presigner)

	task, err := env.tasks.Create(ctx, owner, models.TaskCreate{Title: "with file"})
	require.NoError(t, err)

	_, err = svc.DownloadURL(ctx, owner, task.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound, "no attachment yet")

	up, err := svc.UploadURL(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Key, "tasks/"+owner.ID+"/"+task.ID+"/"))
	assert.Equal(t, "https://storage.example/put/"+up.Key, up.URL)
	assert.False(t, up.ExpiresAt.IsZero())

	down, err := svc.DownloadURL(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, up.Key, down.Key)
	assert.Equal(t, "https://storage.example/get/"+up.Key, down.URL)

	again, err := svc.UploadURL(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.NotEqual(t, up.Key, again.Key, "each upload gets a fresh key")
}

func TestAttachments_Access(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com")
	stranger := env.register(t, "stranger@example.com")
	admin := env.superuser(t, "admin@example.com")
	svc := NewAttachmentService(nil, env.rm, &fakePresigner{})

	task, err := env.tasks.Create(ctx, owner, models.TaskCreate{Title: "t"})
	require.NoError(t, err)

	_, err = svc.UploadURL(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.DownloadURL(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = svc.UploadURL(ctx, admin, task.ID)
	assert.NoError(t, err)

	_, err = svc.UploadURL(ctx, owner, "7d1b7f9e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAttachments_StorageFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com")

	task, err := env.tasks.Create(ctx, owner, models.TaskCreate{Title: "t"})
	require.NoError(t, err)

	unconfigured := NewAttachmentService(nil, env.rm, nil)
	_, err = unconfigured.UploadURL(ctx, owner, task.ID)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	_, err = unconfigured.DownloadURL(ctx, owner, task.ID)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	failing := NewAttachmentService(nil, env.rm, &fakePresigner{putErr: errors.New("s3 down")})
	_, err = failing.UploadURL(ctx, owner, task.ID)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	stored, err := env.tasks.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AttachmentKey, "key is not recorded when presigning fails")

	ok := NewAttachmentService(nil, env.rm, &fakePresigner{})
	_, err = ok.UploadURL(ctx, owner, task.ID)
	require.NoError(t, err)

	failingGet := NewAttachmentService(nil, env.rm, &fakePresigner{getErr: errors.New("s3 down")})
	_, err = failingGet.DownloadURL(ctx, owner, task.ID)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}
