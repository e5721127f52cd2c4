package httpapi

import (
	"time"

	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/services"
	"github.com/dmitrijs2005/taskline/internal/timex"
)

// UserRegister is the signup body. Privilege flags are not accepted.
type UserRegister struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPublic is a user as returned to clients.
type UserPublic struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserPublic(u *models.User) UserPublic {
	return UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

// TaskCreateRequest is the body of POST /tasks. Any owner_id in the body is
// ignored; the task always belongs to the caller.
type TaskCreateRequest struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *timex.Time         `json:"due_date"`
}

func (t TaskCreateRequest) toModel() models.TaskCreate {
	c := models.TaskCreate{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		c.DueDate = &due
	}
	return c
}

// TaskUpdateRequest is the body of PATCH /tasks/{id}.
type TaskUpdateRequest struct {
	Title       models.Optional[string]              `json:"title"`
	Description models.Optional[string]              `json:"description"`
	Status      models.Optional[models.TaskStatus]   `json:"status"`
	Priority    models.Optional[models.TaskPriority] `json:"priority"`
	DueDate     models.Optional[timex.Time]          `json:"due_date"`
}

func (t TaskUpdateRequest) toModel() models.TaskUpdate {
	u := models.TaskUpdate{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
	switch {
	case t.DueDate.Null:
		u.DueDate = models.Null[time.Time]()
	case t.DueDate.Set:
		u.DueDate = models.Some(t.DueDate.Value.UTC())
	}
	return u
}

// TaskPublic is a task as returned to clients.
type TaskPublic struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   *string             `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	DueDate       *time.Time          `json:"due_date"`
	OwnerID       string              `json:"owner_id"`
	HasAttachment bool                `json:"has_attachment"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newTaskPublic(t *models.Task) TaskPublic {
	return TaskPublic{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		DueDate:       t.DueDate,
		OwnerID:       t.OwnerID,
		HasAttachment: t.AttachmentKey != nil,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// Page is a list response: one window plus the total ignoring the window.
type Page[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newTasksPublic(p *models.TaskPage) Page[TaskPublic] {
	out := Page[TaskPublic]{Data: make([]TaskPublic, 0, len(p.Items)), Count: p.Count}
	for _, t := range p.Items {
		out.Data = append(out.Data, newTaskPublic(t))
	}
	return out
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Message struct {
	Message string `json:"message"`
}

// AttachmentURL is a presigned URL for a task attachment.
type AttachmentURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newAttachmentURL(a *services.Attachment) AttachmentURL {
	return AttachmentURL{URL: a.URL, Key: a.Key, ExpiresAt: a.ExpiresAt}
}
