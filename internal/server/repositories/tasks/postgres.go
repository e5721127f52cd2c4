package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/models"
)

const taskColumns = `id, owner_id, title, description, status, priority, due_date, attachment_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var status, priority string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &status, &priority,
		&t.DueDate, &t.AttachmentKey, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {

	query :=
		`INSERT INTO tasks (owner_id, title, description, status, priority, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Title, task.Description, string(task.Status), string(task.Priority), task.DueDate, task.CreatedAt).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return nil, dbx.MapError(err)
	}

	return task, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]*models.Task, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, dbx.MapError(err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, 0, dbx.MapError(err)
	}
	defer rows.Close()

	items := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, dbx.MapError(err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbx.MapError(err)
	}

	return items, total, nil
}

// Update writes the present fields of update plus updated_at in one
// statement. An empty update reads the row back without touching it.
func (r *PostgresRepository) Update(ctx context.Context, id string, update models.TaskUpdate, now time.Time) (*models.Task, error) {
	if update.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title.Present() {
		add("title", update.Title.Value)
	}
	if update.Description.Set {
		add("description", update.Description.Ptr())
	}
	if update.Status.Present() {
		add("status", string(update.Status.Value))
	}
	if update.Priority.Present() {
		add("priority", string(update.Priority.Value))
	}
	if update.DueDate.Set {
		add("due_date", update.DueDate.Ptr())
	}
	add("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), taskColumns)

	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) SetAttachmentKey(ctx context.Context, id string, key string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET attachment_key = $1, updated_at = $2 WHERE id = $3`, key, now, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return requireOneRow(res.RowsAffected())
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return requireOneRow(res.RowsAffected())
}

func requireOneRow(n int64, err error) error {
	if err != nil {
		return dbx.MapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
