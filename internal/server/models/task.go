package models

import (
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

// TaskStatus has no guarded transitions: any value may follow any other.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task is owned by exactly one user. OwnerID is fixed at creation.
type Task struct {
	ID            string
	OwnerID       string
	Title         string
	Description   *string
	Status        TaskStatus
	Priority      TaskPriority
	DueDate       *time.Time
	AttachmentKey *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskCreate is the create payload. Empty Status and Priority take the
// defaults todo and medium.
type TaskCreate struct {
	Title       string
	Description *string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
}

// Normalize fills in defaults.
func (c *TaskCreate) Normalize() {
	if c.Status == "" {
		c.Status = TaskStatusTodo
	}
	if c.Priority == "" {
		c.Priority = TaskPriorityMedium
	}
}

func (c TaskCreate) Validate() error {
	if err := validateTitle(c.Title); err != nil {
		return err
	}
	if c.Description != nil {
		if err := validateDescription(*c.Description); err != nil {
			return err
		}
	}
	if c.Status != "" && !c.Status.Valid() {
		return common.Invalid("status", "must be one of todo, in_progress, completed")
	}
	if c.Priority != "" && !c.Priority.Valid() {
		return common.Invalid("priority", "must be one of low, medium, high, urgent")
	}
	return nil
}

// TaskUpdate is a partial task update. Description and DueDate accept null
// to clear them; the other fields reject null.
type TaskUpdate struct {
	Title       Optional[string]       `json:"title"`
	Description Optional[string]       `json:"description"`
	Status      Optional[TaskStatus]   `json:"status"`
	Priority    Optional[TaskPriority] `json:"priority"`
	DueDate     Optional[time.Time]    `json:"due_date"`
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return !u.Title.Set && !u.Description.Set && !u.Status.Set && !u.Priority.Set && !u.DueDate.Set
}

func (u TaskUpdate) Validate() error {
	if u.Title.Set {
		if u.Title.Null {
			return common.Invalid("title", "must not be null")
		}
		if err := validateTitle(u.Title.Value); err != nil {
			return err
		}
	}
	if u.Description.Present() {
		if err := validateDescription(u.Description.Value); err != nil {
			return err
		}
	}
	if u.Status.Set && (u.Status.Null || !u.Status.Value.Valid()) {
		return common.Invalid("status", "must be one of todo, in_progress, completed")
	}
	if u.Priority.Set && (u.Priority.Null || !u.Priority.Value.Valid()) {
		return common.Invalid("priority", "must be one of low, medium, high, urgent")
	}
	return nil
}

// Apply copies the present fields of u onto t and stamps UpdatedAt with now
// when anything changed.
func (t *Task) Apply(u TaskUpdate, now time.Time) {
	if u.Empty() {
		return
	}
	if u.Title.Present() {
		t.Title = u.Title.Value
	}
	if u.Description.Set {
		t.Description = u.Description.Ptr()
	}
	if u.Status.Present() {
		t.Status = u.Status.Value
	}
	if u.Priority.Present() {
		t.Priority = u.Priority.Value
	}
	if u.DueDate.Set {
		t.DueDate = u.DueDate.Ptr()
	}
	t.UpdatedAt = now
}

// TaskPage is one pagination window plus the owner's total task count.
type TaskPage struct {
	Items []*Task
	Count int
}

func validateTitle(title string) error {
	n := len([]rune(title))
	if n < 1 || n > maxTitleLength {
		return common.Invalid("title", "must be between 1 and 255 characters")
	}
	return nil
}

func validateDescription(d string) error {
	if len([]rune(d)) > maxDescriptionLength {
		return common.Invalid("description", "must be at most 1000 characters")
	}
	return nil
}
