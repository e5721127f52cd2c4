package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/services"
)

// TaskService is the task surface the HTTP layer needs.
type TaskService interface {
	Create(ctx context.Context, actor *models.User, in models.TaskCreate) (*models.Task, error)
	List(ctx context.Context, actor *models.User, skip, limit int) (*models.TaskPage, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Task, error)
	Update(ctx context.Context, actor *models.User, id string, in models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

// AttachmentService presigns attachment URLs.
type AttachmentService interface {
	UploadURL(ctx context.Context, actor *models.User, taskID string) (*services.Attachment, error)
	DownloadURL(ctx context.Context, actor *models.User, taskID string) (*services.Attachment, error)
}

type TaskHandler struct {
	Tasks       TaskService
	Attachments AttachmentService
}

func NewTaskHandler(tasks TaskService, attachments AttachmentService) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Attachments: attachments}
}

// taskError gives task lookups their own not-found message.
func taskError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrNotFoundWrap("Task not found", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}

	var req TaskCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	task, err := h.Tasks.Create(r.Context(), actor, req.toModel())
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, newTaskPublic(task))
	return nil
}

func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	skip, limit, err := queryWindow(r)
	if err != nil {
		return err
	}

	page, err := h.Tasks.List(r.Context(), actor, skip, limit)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	RespondWithJSON(w, http.StatusOK, newTasksPublic(page))
	return nil
}

func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	task, err := h.Tasks.Get(r.Context(), actor, id)
	if err != nil {
		return taskError("get task", err)
	}

	RespondWithJSON(w, http.StatusOK, newTaskPublic(task))
	return nil
}

func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var req TaskUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	task, err := h.Tasks.Update(r.Context(), actor, id, req.toModel())
	if err != nil {
		return taskError("update task", err)
	}

	RespondWithJSON(w, http.StatusOK, newTaskPublic(task))
	return nil
}

func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := h.Tasks.Delete(r.Context(), actor, id); err != nil {
		return taskError("delete task", err)
	}

	RespondWithJSON(w, http.StatusOK, Message{Message: "Task deleted successfully"})
	return nil
}

func (h *TaskHandler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	a, err := h.Attachments.UploadURL(r.Context(), actor, id)
	if err != nil {
		return taskError("presign upload", err)
	}

	RespondWithJSON(w, http.StatusOK, newAttachmentURL(a))
	return nil
}

func (h *TaskHandler) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) error {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		return ErrUnauthorized("")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	a, err := h.Attachments.DownloadURL(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, services.ErrNoAttachment) {
			return ErrNotFoundWrap("Attachment not found", err)
		}
		return taskError("presign download", err)
	}

	RespondWithJSON(w, http.StatusOK, newAttachmentURL(a))
	return nil
}
