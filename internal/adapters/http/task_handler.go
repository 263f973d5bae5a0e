package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description List tasks with filtering, search, ordering and pagination
// @Tags tasks
// @Produce json
// @Param status query string false "pending, in_progress, completed or cancelled"
// @Param priority query string false "low, medium, high or urgent"
// @Param category query string false "Category ID"
// @Param user query string false "User ID"
// @Param telegram_user_id query int false "Telegram user ID"
// @Param overdue query bool false "Only overdue tasks"
// @Param search query string false "Search in title and description"
// @Param ordering query string false "created_at, updated_at, due_date or priority, optionally prefixed with -"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ports.PaginatedResponse[entities.Task]
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}

	tasks, total, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, page(tasks, total, filter.Limit, filter.Offset))
}

// GetTask godoc
// @Summary Get task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// CreateTask godoc
// @Summary Create task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// UpdateTask godoc
// @Summary Update task
// @Description PUT and PATCH both update only the supplied fields; null clears category and due_date
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	raw, err := decodePartial(c, &req)
	if err != nil {
		return err
	}
	req.ClearCategory = isNull(raw, "category")
	req.ClearDueDate = isNull(raw, "due_date")

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return mapServiceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ByTelegramUser godoc
// @Summary List a chat user's tasks
// @Tags telegram
// @Produce json
// @Param telegram_user_id query int true "Telegram user ID"
// @Param status query string false "Task status"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ports.PaginatedResponse[entities.Task]
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks/by_telegram_user [get]
func (h *TaskHandler) ByTelegramUser(c echo.Context) error {
	telegramUserID, err := queryInt64(c, "telegram_user_id")
	if err != nil {
		return err
	}
	if telegramUserID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "telegram_user_id is required"})
	}

	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	limit, offset, err := parsePage(c)
	if err != nil {
		return err
	}

	tasks, total, err := h.taskService.ListByTelegramUser(c.Request().Context(), *telegramUserID, status, limit, offset)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, page(tasks, total, limit, offset))
}

// CreateForTelegram godoc
// @Summary Create a task for a chat user
// @Description Creates the chat user's placeholder account on first use
// @Tags telegram
// @Accept json
// @Produce json
// @Param request body ports.TelegramTaskRequest true "Task"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks/create_for_telegram [post]
func (h *TaskHandler) CreateForTelegram(c echo.Context) error {
	var req ports.TelegramTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateForTelegram(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	h.logger.WithTelegramUser(req.TelegramUserID).Infow("Task created from chat", "task_id", task.ID)
	return c.JSON(http.StatusCreated, task)
}

// MarkCompleted godoc
// @Summary Mark task completed
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/mark_completed [patch]
func (h *TaskHandler) MarkCompleted(c echo.Context) error {
	task, err := h.taskService.MarkCompleted(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// ScheduleReminder godoc
// @Summary Schedule a one-shot reminder
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.ScheduleReminderRequest true "Reminder time"
// @Success 202 {object} ports.ReminderResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/schedule_reminder [post]
func (h *TaskHandler) ScheduleReminder(c echo.Context) error {
	var req ports.ScheduleReminderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.taskService.ScheduleReminder(c.Request().Context(), id, req.NotifyAt); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusAccepted, ports.ReminderResponse{TaskID: id, NotifyAt: req.NotifyAt})
}

// Stats godoc
// @Summary Task statistics
// @Description Per-status counts and the overdue count, optionally for one chat user
// @Tags tasks
// @Produce json
// @Param telegram_user_id query int false "Telegram user ID"
// @Success 200 {object} entities.TaskStats
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks/stats [get]
func (h *TaskHandler) Stats(c echo.Context) error {
	telegramUserID, err := queryInt64(c, "telegram_user_id")
	if err != nil {
		return err
	}

	stats, err := h.taskService.Stats(c.Request().Context(), telegramUserID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

func parseTaskFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	status, err := queryStatus(c)
	if err != nil {
		return filter, err
	}
	filter.Status = status

	if value := c.QueryParam("priority"); value != "" {
		priority := entities.Priority(value)
		if !priority.IsValid() {
			return filter, badQuery("priority")
		}
		filter.Priority = &priority
	}

	filter.CategoryID = queryString(c, "category")

	if value := c.QueryParam("user"); value != "" {
		userID, err := uuid.Parse(value)
		if err != nil {
			return filter, badQuery("user")
		}
		filter.UserID = &userID
	}

	if filter.TelegramUserID, err = queryInt64(c, "telegram_user_id"); err != nil {
		return filter, err
	}

	if value := c.QueryParam("overdue"); value != "" {
		overdue, err := strconv.ParseBool(value)
		if err != nil {
			return filter, badQuery("overdue")
		}
		filter.Overdue = overdue
	}

	filter.Search = queryString(c, "search")
	filter.Ordering = c.QueryParam("ordering")

	if filter.Limit, filter.Offset, err = parsePage(c); err != nil {
		return filter, err
	}

	return filter, nil
}

func parsePage(c echo.Context) (int, int, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, offset = services.NormalizePage(limit, offset)
	return limit, offset, nil
}

func page(tasks []*entities.Task, total, limit, offset int) ports.PaginatedResponse[*entities.Task] {
	if tasks == nil {
		tasks = []*entities.Task{}
	}
	return ports.PaginatedResponse[*entities.Task]{
		Data:   tasks,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}
