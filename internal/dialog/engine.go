package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/todobot/core/internal/adapters/apiclient"
	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

const taskListLimit = 10

// TaskAPI is the data source of the dialog
type TaskAPI interface {
	ListTelegramTasks(ctx context.Context, telegramUserID int64, limit int) apiclient.Result[[]entities.Task]
	GetTask(ctx context.Context, id string) apiclient.Result[entities.Task]
	CreateTelegramTask(ctx context.Context, req ports.TelegramTaskRequest) apiclient.Result[entities.Task]
	MarkCompleted(ctx context.Context, id string) apiclient.Result[entities.Task]
	Stats(ctx context.Context, telegramUserID int64) apiclient.Result[entities.TaskStats]
	ListCategories(ctx context.Context) apiclient.Result[[]entities.Category]
}

// Engine runs the task wizard for every chat session
type Engine struct {
	api    TaskAPI
	store  SessionStore
	logger *logger.Logger
}

// NewEngine creates a new dialog engine
func NewEngine(api TaskAPI, store SessionStore, log *logger.Logger) *Engine {
	return &Engine{
		api:    api,
		store:  store,
		logger: log.WithComponent("dialog"),
	}
}

// Handle applies ev to the session of id and returns the screen of the resulting state
func (e *Engine) Handle(ctx context.Context, id Identity, ev Event) (Screen, error) {
	var session *Session
	if ev.is(EventCommand, CommandStart) {
		session = NewSession(id)
	} else {
		loaded, err := e.store.Load(ctx, id.ChatID, id.UserID)
		if err != nil {
			return Screen{}, fmt.Errorf("failed to load session: %w", err)
		}
		session = loaded
		if session == nil {
			session = NewSession(id)
		}
	}

	from := session.State
	notice := e.apply(ctx, session, ev)

	screen := e.render(ctx, session, id)
	screen.Notice = notice

	if err := e.store.Save(ctx, session); err != nil {
		return Screen{}, fmt.Errorf("failed to save session: %w", err)
	}

	if from != session.State {
		e.logger.Debugw("Dialog transition",
			"chat_id", id.ChatID,
			"telegram_user_id", id.UserID,
			"from", from,
			"to", session.State,
		)
	}

	return screen, nil
}

// apply runs the handler of the current state and returns a notice for the user
func (e *Engine) apply(ctx context.Context, s *Session, ev Event) string {
	if ev.is(EventAction, ActionMenu) {
		e.enterMainMenu(s)
		return ""
	}

	switch s.State {
	case StateMainMenu:
		return e.onMainMenu(s, ev)
	case StateTaskList:
		return e.onTaskList(s, ev)
	case StateTaskDetail:
		return e.onTaskDetail(ctx, s, ev)
	case StateCreateTitle:
		return e.onCreateTitle(s, ev)
	case StateCreateDescription:
		return e.onCreateDescription(s, ev)
	case StateCreateCategory:
		return e.onCreateCategory(ctx, s, ev)
	case StateCreatePriority:
		return e.onCreatePriority(s, ev)
	case StateCreateConfirm:
		return e.onCreateConfirm(ctx, s, ev)
	default:
		e.enterMainMenu(s)
		return ""
	}
}

func (e *Engine) enterMainMenu(s *Session) {
	s.State = StateMainMenu
	s.SelectedTaskID = ""
	s.resetDraft()
}

func (e *Engine) startCreate(s *Session) {
	s.resetDraft()
	s.State = StateCreateTitle
}

func (e *Engine) onMainMenu(s *Session, ev Event) string {
	switch {
	case ev.is(EventAction, ActionTasks):
		s.State = StateTaskList
	case ev.is(EventAction, ActionCreate):
		e.startCreate(s)
	}
	return ""
}

func (e *Engine) onTaskList(s *Session, ev Event) string {
	if taskID, ok := ev.actionArg(actionTaskPrefix); ok {
		s.SelectedTaskID = taskID
		s.State = StateTaskDetail
		return ""
	}

	switch {
	case ev.is(EventAction, ActionCreate):
		e.startCreate(s)
	case ev.is(EventAction, ActionBack):
		e.enterMainMenu(s)
	}
	return ""
}

func (e *Engine) onTaskDetail(ctx context.Context, s *Session, ev Event) string {
	switch {
	case ev.is(EventAction, ActionBack):
		s.State = StateTaskList
	case ev.is(EventAction, ActionComplete):
		result := e.api.MarkCompleted(ctx, s.SelectedTaskID)
		s.State = StateTaskList
		if !result.OK() {
			return "❌ Could not complete the task"
		}
		return "✅ Task completed!"
	}
	return ""
}

func (e *Engine) onCreateTitle(s *Session, ev Event) string {
	switch {
	case ev.Kind == EventText:
		title := strings.TrimSpace(ev.Value)
		if title == "" {
			return "Title cannot be empty"
		}
		s.Draft.Title = title
		s.State = StateCreateDescription
	case ev.is(EventAction, ActionBack):
		e.enterMainMenu(s)
	}
	return ""
}

func (e *Engine) onCreateDescription(s *Session, ev Event) string {
	switch {
	case ev.Kind == EventText:
		s.Draft.Description = strings.TrimSpace(ev.Value)
		s.State = StateCreateCategory
	case ev.is(EventCommand, CommandSkip), ev.is(EventAction, ActionSkip):
		s.Draft.Description = ""
		s.State = StateCreateCategory
	case ev.is(EventAction, ActionBack):
		s.State = StateCreateTitle
	}
	return ""
}

func (e *Engine) onCreateCategory(ctx context.Context, s *Session, ev Event) string {
	if categoryID, ok := ev.actionArg(actionCategoryPrefix); ok {
		s.Draft.CategoryID = &categoryID
		s.Draft.CategoryName = e.categoryName(ctx, categoryID)
		s.State = StateCreatePriority
		return ""
	}

	switch {
	case ev.is(EventAction, ActionNoCategory):
		s.Draft.CategoryID = nil
		s.Draft.CategoryName = ""
		s.State = StateCreatePriority
	case ev.is(EventAction, ActionBack):
		s.State = StateCreateDescription
	}
	return ""
}

func (e *Engine) onCreatePriority(s *Session, ev Event) string {
	if value, ok := ev.actionArg(actionPriorityPrefix); ok {
		priority := entities.Priority(value)
		if !priority.IsValid() {
			return "Unknown priority"
		}
		s.Draft.Priority = priority
		s.State = StateCreateConfirm
		return ""
	}

	if ev.is(EventAction, ActionBack) {
		s.State = StateCreateCategory
	}
	return ""
}

func (e *Engine) onCreateConfirm(ctx context.Context, s *Session, ev Event) string {
	switch {
	case ev.is(EventAction, ActionBack):
		s.State = StateCreatePriority
		return ""
	case !ev.is(EventAction, ActionConfirm):
		return ""
	}

	priority := s.Draft.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}

	result := e.api.CreateTelegramTask(ctx, ports.TelegramTaskRequest{
		TelegramUserID: s.UserID,
		Title:          s.Draft.Title,
		Description:    s.Draft.Description,
		CategoryID:     s.Draft.CategoryID,
		Priority:       &priority,
	})

	switch result.Outcome {
	case apiclient.OutcomeOK:
		e.logger.Infow("Task created from chat", "task_id", result.Value.ID, "telegram_user_id", s.UserID)
		s.resetDraft()
		s.State = StateTaskList
		return "✅ Task created!"
	case apiclient.OutcomeInvalid, apiclient.OutcomeNotFound:
		if result.Message != "" {
			return "❌ The task was rejected: " + result.Message
		}
		return "❌ The task was rejected, check the entered data"
	default:
		return "❌ Task service is unavailable, try again later"
	}
}

func (e *Engine) categoryName(ctx context.Context, id string) string {
	result := e.api.ListCategories(ctx)
	if !result.OK() {
		return ""
	}
	for _, category := range result.Value {
		if category.ID == id {
			return category.Name
		}
	}
	return ""
}
