package mirror

// User is a user row as exposed by the mirror. The password hash is never
// selected.
type User struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	CreatedAt   string  `json:"created_at"`
}

// Task is a task row as exposed by the mirror. Timestamps are passed through
// in the upstream's own format.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	OwnerID     string  `json:"owner_id"`
}

type UserPage struct {
	Items []User
	Count int
}

type TaskPage struct {
	Items []Task
	Count int
}

// TaskQuery selects a window of tasks. Empty OwnerID or Status means no
// filter on that column.
type TaskQuery struct {
	Skip    int
	Limit   int
	OwnerID string
	Status  string
}
