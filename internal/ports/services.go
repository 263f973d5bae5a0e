package ports

import (
	"time"

	"github.com/google/uuid"
	"github.com/todobot/core/internal/domain/entities"
)

// Request/Response Types

// User related types
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
}

// Category related types
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"omitempty,len=7,hexcolor"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Color       *string `json:"color" validate:"omitempty,len=7,hexcolor"`
}

// Task related types
type CreateTaskRequest struct {
	Title          string               `json:"title" validate:"required,max=200"`
	Description    string               `json:"description"`
	Status         *entities.TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CategoryID     *string              `json:"category" validate:"omitempty,len=12"`
	UserID         uuid.UUID            `json:"user" validate:"required"`
	TelegramUserID *int64               `json:"telegram_user_id"`
	DueDate        *time.Time           `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title          *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string              `json:"description"`
	Status         *entities.TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CategoryID     *string              `json:"category" validate:"omitempty,len=12"`
	ClearCategory  bool                 `json:"-"`
	TelegramUserID *int64               `json:"telegram_user_id"`
	DueDate        *time.Time           `json:"due_date"`
	ClearDueDate   bool                 `json:"-"`
}

// TelegramTaskRequest is the body of the bot's task creation call
type TelegramTaskRequest struct {
	TelegramUserID int64              `json:"telegram_user_id" validate:"required"`
	Title          string             `json:"title" validate:"required,max=200"`
	Description    string             `json:"description"`
	CategoryID     *string            `json:"category,omitempty" validate:"omitempty,len=12"`
	Priority       *entities.Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
}

type ScheduleReminderRequest struct {
	NotifyAt time.Time `json:"notify_at" validate:"required"`
}

type ReminderResponse struct {
	TaskID   string    `json:"task_id"`
	NotifyAt time.Time `json:"notify_at"`
}

// NotificationRequest is the messaging gateway payload
type NotificationRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
