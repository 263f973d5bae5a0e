package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo     ports.TaskRepository
	categoryRepo ports.CategoryRepository
	users        *UserService
	reminders    ports.ReminderQueue
	logger       *logger.Logger
	now          func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, categoryRepo ports.CategoryRepository, users *UserService, reminders ports.ReminderQueue, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		users:        users,
		reminders:    reminders,
		logger:       logger,
		now:          time.Now,
	}
}

// ListTasks retrieves one page of tasks matching filter and the total match count
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	filter.Limit, filter.Offset = NormalizePage(filter.Limit, filter.Offset)
	filter.Now = s.now()

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	title, err := cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %s does not exist", entities.ErrValidation, req.UserID)
		}
		return nil, err
	}

	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	task := entities.NewTask(title, req.UserID, now)
	task.Description = req.Description
	task.CategoryID = req.CategoryID
	task.TelegramUserID = req.TelegramUserID
	task.DueDate = req.DueDate
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.ApplyStatus(*req.Status, now)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.LogTaskEvent(task.ID, "created", map[string]interface{}{
		"title":    task.Title,
		"status":   task.Status,
		"priority": task.Priority,
	})

	return s.reload(ctx, task)
}

// UpdateTask applies the supplied fields to an existing task
func (s *TaskService) UpdateTask(ctx context.Context, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	if req.Title != nil {
		title, err := cleanTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.CategoryID != nil {
		task.CategoryID = req.CategoryID
	} else if req.ClearCategory {
		task.CategoryID = nil
	}
	if req.TelegramUserID != nil {
		task.TelegramUserID = req.TelegramUserID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	} else if req.ClearDueDate {
		task.DueDate = nil
	}
	if req.Status != nil {
		task.ApplyStatus(*req.Status, now)
	}
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.LogTaskEvent(task.ID, "updated", map[string]interface{}{
		"status": task.Status,
	})

	return s.reload(ctx, task)
}

// MarkCompleted is UpdateTask with status completed
func (s *TaskService) MarkCompleted(ctx context.Context, id string) (*entities.Task, error) {
	completed := entities.TaskStatusCompleted
	return s.UpdateTask(ctx, id, ports.UpdateTaskRequest{Status: &completed})
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.LogTaskEvent(id, "deleted", nil)
	return nil
}

// Stats counts tasks per status, optionally scoped to one chat user
func (s *TaskService) Stats(ctx context.Context, telegramUserID *int64) (*entities.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, telegramUserID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}
	return stats, nil
}

// CreateForTelegram creates a task owned by the chat user's placeholder account
func (s *TaskService) CreateForTelegram(ctx context.Context, req ports.TelegramTaskRequest) (*entities.Task, error) {
	if _, err := cleanTitle(req.Title); err != nil {
		return nil, err
	}

	user, err := s.users.GetOrCreateTelegramUser(ctx, req.TelegramUserID)
	if err != nil {
		return nil, err
	}

	telegramUserID := req.TelegramUserID
	return s.CreateTask(ctx, ports.CreateTaskRequest{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		CategoryID:     req.CategoryID,
		UserID:         user.ID,
		TelegramUserID: &telegramUserID,
		DueDate:        req.DueDate,
	})
}

// ListByTelegramUser lists one chat user's tasks, optionally narrowed to a status
func (s *TaskService) ListByTelegramUser(ctx context.Context, telegramUserID int64, status *entities.TaskStatus, limit, offset int) ([]*entities.Task, int, error) {
	return s.ListTasks(ctx, ports.TaskFilter{
		TelegramUserID: &telegramUserID,
		Status:         status,
		Limit:          limit,
		Offset:         offset,
	})
}

// ScheduleReminder queues a one-shot reminder for the task at notifyAt
func (s *TaskService) ScheduleReminder(ctx context.Context, id string, notifyAt time.Time) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	if !notifyAt.After(s.now()) {
		return entities.ErrReminderInPast
	}
	if task.TelegramUserID == nil {
		return entities.ErrTaskNotSchedulable
	}

	if err := s.reminders.Schedule(ctx, task.ID, notifyAt); err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.logger.LogTaskEvent(task.ID, "reminder_scheduled", map[string]interface{}{
		"notify_at": notifyAt,
	})
	return nil
}

func (s *TaskService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}

	if _, err := s.categoryRepo.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, entities.ErrCategoryNotFound) {
			return fmt.Errorf("%w: category %s does not exist", entities.ErrValidation, *categoryID)
		}
		return fmt.Errorf("failed to check category: %w", err)
	}

	return nil
}

// reload fetches the stored row so joined names are filled in
func (s *TaskService) reload(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	stored, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return stored, nil
}

// NormalizePage applies the default and maximum page size and clamps a negative offset
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title cannot be blank", entities.ErrValidation)
	}
	return title, nil
}
