package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/ports"
)

const foreignKeyViolation = "23503"

const priorityRank = `CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 WHEN 'urgent' THEN 3 END`

var taskOrderings = map[string]string{
	"created_at":  "t.created_at ASC",
	"-created_at": "t.created_at DESC",
	"updated_at":  "t.updated_at ASC",
	"-updated_at": "t.updated_at DESC",
	"due_date":    "t.due_date ASC NULLS LAST",
	"-due_date":   "t.due_date DESC NULLS LAST",
	"priority":    priorityRank + " ASC",
	"-priority":   priorityRank + " DESC",
}

// openStatuses are the statuses a task can be overdue in
var openStatuses = []string{
	string(entities.TaskStatusPending),
	string(entities.TaskStatusInProgress),
}

var taskColumns = []string{
	"t.id", "t.title", "t.description", "t.status", "t.priority",
	"t.category_id", "c.name AS category_name",
	"t.user_id", "u.username AS user_username",
	"t.telegram_user_id", "t.due_date", "t.completed_at",
	"t.created_at", "t.updated_at",
}

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func selectTasks() squirrel.SelectBuilder {
	return squirrel.Select(taskColumns...).
		From("tasks t").
		LeftJoin("categories c ON c.id = t.category_id").
		Join("users u ON u.id = t.user_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, category_id, user_id,
			telegram_user_id, due_date, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if task.ID == "" {
		task.ID = entities.NewID()
	}

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.CategoryID,
		task.UserID, task.TelegramUserID, task.DueDate, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced category or user does not exist", entities.ErrValidation)
		}
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	query, args, err := selectTasks().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, category_id = $6,
			telegram_user_id = $7, due_date = $8, completed_at = $9, updated_at = $10
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.CategoryID,
		task.TelegramUserID, task.DueDate, task.CompletedAt, task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced category does not exist", entities.ErrValidation)
		}
		return fmt.Errorf("update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

// List returns one page of tasks matching filter and the total match count
func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	orderBy, ok := taskOrderings[filter.Ordering]
	if filter.Ordering == "" {
		orderBy, ok = taskOrderings["-created_at"], true
	}
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown ordering %q", entities.ErrValidation, filter.Ordering)
	}

	where := taskConditions(filter)

	countQuery, countArgs, err := squirrel.Select("COUNT(*)").
		From("tasks t").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build task count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	builder := selectTasks().
		Where(where).
		OrderBy(orderBy, "t.id ASC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build task list query: %w", err)
	}

	tasks := []*entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, total, nil
}

func taskConditions(filter ports.TaskFilter) squirrel.And {
	where := squirrel.And{}

	if filter.Status != nil {
		where = append(where, squirrel.Eq{"t.status": string(*filter.Status)})
	}
	if filter.Priority != nil {
		where = append(where, squirrel.Eq{"t.priority": string(*filter.Priority)})
	}
	if filter.CategoryID != nil {
		where = append(where, squirrel.Eq{"t.category_id": *filter.CategoryID})
	}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"t.user_id": *filter.UserID})
	}
	if filter.TelegramUserID != nil {
		where = append(where, squirrel.Eq{"t.telegram_user_id": *filter.TelegramUserID})
	}
	if filter.Overdue {
		where = append(where,
			squirrel.Lt{"t.due_date": filter.Now},
			squirrel.Eq{"t.status": openStatuses},
		)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		pattern := containsPattern(*filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"t.title": pattern},
			squirrel.ILike{"t.description": pattern},
		})
	}

	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching text literally anywhere in a column.
// Postgres treats backslash as the default LIKE escape character.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(text)) + "%"
}

type statusCount struct {
	Status  entities.TaskStatus `db:"status"`
	Count   int                 `db:"count"`
	Overdue int                 `db:"overdue"`
}

// Stats counts tasks per status in one grouped query, optionally scoped to a telegram user
func (r *TaskRepositoryImpl) Stats(ctx context.Context, telegramUserID *int64, now time.Time) (*entities.TaskStats, error) {
	builder := squirrel.Select("status", "COUNT(*) AS count").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE due_date < ? AND status IN ('pending', 'in_progress')) AS overdue", now)).
		From("tasks").
		GroupBy("status").
		PlaceholderFormat(squirrel.Dollar)
	if telegramUserID != nil {
		builder = builder.Where(squirrel.Eq{"telegram_user_id": *telegramUserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task stats query: %w", err)
	}

	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	stats := &entities.TaskStats{}
	for _, row := range rows {
		stats.Add(row.Status, row.Count)
		stats.Overdue += row.Overdue
	}

	return stats, nil
}

func (r *TaskRepositoryImpl) GetOverdue(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	query, args, err := selectTasks().
		Where(squirrel.Lt{"t.due_date": now}).
		Where(squirrel.Eq{"t.status": openStatuses}).
		OrderBy("t.due_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	tasks := []*entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("get overdue tasks: %w", err)
	}

	return tasks, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
