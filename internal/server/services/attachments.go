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
	"github.com/dmitrijs2005/taskline/internal/server/storage"
	"github.com/google/uuid"
)

// ErrNoAttachment is returned by DownloadURL for a task without an
// attachment. It matches common.ErrorNotFound.
var ErrNoAttachment = fmt.Errorf("task has no attachment: %w", common.ErrorNotFound)

// AttachmentService hands out presigned URLs for the single attachment a
// task may carry. Access follows the task's owner-or-superuser rule.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   storage.Presigner
	tasks       *TaskService
	now         func() time.Time
}

// NewAttachmentService builds the service. A nil presigner means object
// storage is not configured and every call fails with
// ErrUpstreamUnavailable.
func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, presigner storage.Presigner) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		presigner:   presigner,
		tasks:       NewTaskService(db, m),
		now:         time.Now,
	}
}

// Attachment is a presigned URL for one object.
type Attachment struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// StorageKey allocates a fresh object key under the task's prefix.
func StorageKey(ownerID, taskID string) string {
	return fmt.Sprintf("tasks/%s/%s/%s", ownerID, taskID, uuid.NewString())
}

// UploadURL allocates a new key for the task, records it and returns a
// presigned PUT URL. Any previous attachment is replaced.
func (s *AttachmentService) UploadURL(ctx context.Context, actor *models.User, taskID string) (*Attachment, error) {
	if s.presigner == nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrNotConfigured, common.ErrUpstreamUnavailable)
	}

	var out *Attachment
	err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := s.tasks.loadOwned(ctx, repo, actor, taskID)
		if err != nil {
			return err
		}

		key := StorageKey(task.OwnerID, task.ID)
		now := s.now().UTC()

		url, err := s.presigner.PresignPut(ctx, key)
		if err != nil {
			return fmt.Errorf("presign upload: %v: %w", err, common.ErrUpstreamUnavailable)
		}
		if err := repo.SetAttachmentKey(ctx, task.ID, key, now); err != nil {
			return fmt.Errorf("error saving attachment key: %w", err)
		}

		out = &Attachment{URL: url, Key: key, ExpiresAt: now.Add(storage.PresignExpiry)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadURL returns a presigned GET URL for the task's attachment, or
// ErrorNotFound when it has none.
func (s *AttachmentService) DownloadURL(ctx context.Context, actor *models.User, taskID string) (*Attachment, error) {
	if s.presigner == nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrNotConfigured, common.ErrUpstreamUnavailable)
	}

	task, err := s.tasks.loadOwned(ctx, s.repomanager.Tasks(s.db), actor, taskID)
	if err != nil {
		return nil, err
	}
	if task.AttachmentKey == nil {
		return nil, ErrNoAttachment
	}

	url, err := s.presigner.PresignGet(ctx, *task.AttachmentKey)
	if err != nil {
		return nil, fmt.Errorf("presign download: %v: %w", err, common.ErrUpstreamUnavailable)
	}
	return &Attachment{URL: url, Key: *task.AttachmentKey, ExpiresAt: s.now().UTC().Add(storage.PresignExpiry)}, nil
}
