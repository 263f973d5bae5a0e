package entities

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateCategory  = errors.New("category with this name already exists")
	ErrValidation         = errors.New("validation failed")
	ErrReminderInPast     = errors.New("reminder time must be in the future")
	ErrTaskNotSchedulable = errors.New("task has no telegram user to notify")
)

// Enums and types
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

const DefaultCategoryColor = "#007bff"

// User is the account record tasks belong to
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Category groups tasks under a unique name
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Task represents a task in the system
type Task struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	Status         TaskStatus `json:"status" db:"status"`
	Priority       Priority   `json:"priority" db:"priority"`
	CategoryID     *string    `json:"category" db:"category_id"`
	CategoryName   *string    `json:"category_name" db:"category_name"`
	UserID         uuid.UUID  `json:"user" db:"user_id"`
	UserUsername   string     `json:"user_username" db:"user_username"`
	TelegramUserID *int64     `json:"telegram_user_id" db:"telegram_user_id"`
	DueDate        *time.Time `json:"due_date" db:"due_date"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskStats holds per-status counts for a set of tasks
type TaskStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
}

// NewTask builds a task with default status and priority applied.
func NewTask(title string, userID uuid.UUID, now time.Time) *Task {
	return &Task{
		ID:        NewID(),
		Title:     title,
		Status:    TaskStatusPending,
		Priority:  PriorityMedium,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Business logic methods for Task

// IsOverdueAt reports whether the deadline has passed at now for a task that is not completed.
func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

func (t *Task) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// ApplyStatus moves the task to status, keeping completed_at in step:
// set on entering completed, cleared on any other status.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	switch {
	case status == TaskStatusCompleted && t.Status != TaskStatusCompleted:
		completedAt := now
		t.CompletedAt = &completedAt
	case status == TaskStatusCompleted && t.CompletedAt == nil:
		completedAt := now
		t.CompletedAt = &completedAt
	case status != TaskStatusCompleted:
		t.CompletedAt = nil
	}
	t.Status = status
}

// MarshalJSON adds the derived is_overdue flag, computed at serialization time.
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return json.Marshal(struct {
		plain
		IsOverdue bool `json:"is_overdue"`
	}{
		plain:     plain(t),
		IsOverdue: t.IsOverdue(),
	})
}

// Add counts one task with the given status.
func (s *TaskStats) Add(status TaskStatus, n int) {
	switch status {
	case TaskStatusPending:
		s.Pending += n
	case TaskStatusInProgress:
		s.InProgress += n
	case TaskStatusCompleted:
		s.Completed += n
	case TaskStatusCancelled:
		s.Cancelled += n
	default:
		return
	}
	s.Total += n
}

// Utility methods
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Rank orders priorities from low (0) to urgent (3); unknown values rank -1.
func (p Priority) Rank() int {
	for i, candidate := range Priorities {
		if candidate == p {
			return i
		}
	}
	return -1
}
