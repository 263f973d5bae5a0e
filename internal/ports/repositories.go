package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/todobot/core/internal/domain/entities"
)

// UserRepository defines the interface for account data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	// GetOrCreate returns the account with user.Username, inserting user when none exists.
	GetOrCreate(ctx context.Context, user *entities.User) (*entities.User, bool, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *entities.Category) error
	GetByID(ctx context.Context, id string) (*entities.Category, error)
	Update(ctx context.Context, category *entities.Category) error
	// Delete removes the category and nulls the reference on its tasks.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CategoryFilter) ([]*entities.Category, error)
	// GetOrCreate returns the category named category.Name, inserting category when none exists.
	GetOrCreate(ctx context.Context, category *entities.Category) (*entities.Category, bool, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, int, error)
	Stats(ctx context.Context, telegramUserID *int64, now time.Time) (*entities.TaskStats, error)
	// GetOverdue returns pending or in-progress tasks whose due date is before now.
	GetOverdue(ctx context.Context, now time.Time) ([]*entities.Task, error)
}

// ReminderQueue stores one-shot task reminders until they are due
type ReminderQueue interface {
	Schedule(ctx context.Context, taskID string, notifyAt time.Time) error
	// ClaimDue removes and returns the ids of reminders due at or before now.
	ClaimDue(ctx context.Context, now time.Time, limit int64) ([]string, error)
}

// Filter types for repository queries
type CategoryFilter struct {
	Search   *string
	Ordering string
}

type TaskFilter struct {
	Status         *entities.TaskStatus
	Priority       *entities.Priority
	CategoryID     *string
	UserID         *uuid.UUID
	TelegramUserID *int64
	Overdue        bool
	Search         *string
	Ordering       string
	Now            time.Time
	Limit          int
	Offset         int
}

// ErrNotifierDisabled is returned by a NotificationSender that has nowhere to deliver to
var ErrNotifierDisabled = errors.New("notification delivery is not configured")

// NotificationSender delivers a text message to a chat user
type NotificationSender interface {
	Send(ctx context.Context, telegramUserID int64, message string) error
}
