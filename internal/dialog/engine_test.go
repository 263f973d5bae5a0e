package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todobot/core/internal/adapters/apiclient"
	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Load(ctx context.Context, chatID, userID int64) (*Session, error) {
	raw, ok := m.data[SessionKey(chatID, userID)]
	if !ok {
		return nil, nil
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *memStore) Save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.data[session.Key()] = raw
	return nil
}

type fakeAPI struct {
	tasks      map[string]entities.Task
	categories []entities.Category
	created    []ports.TelegramTaskRequest
	completed  []string
	createWith apiclient.Outcome
	createMsg  string
	down       bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tasks: map[string]entities.Task{},
		categories: []entities.Category{
			{ID: "cat000000001", Name: "Work"},
			{ID: "cat000000002", Name: "Shopping"},
		},
	}
}

func ok[T any](v T) apiclient.Result[T] {
	return apiclient.Result[T]{Value: v, Outcome: apiclient.OutcomeOK}
}

func fail[T any](outcome apiclient.Outcome, message string) apiclient.Result[T] {
	return apiclient.Result[T]{Outcome: outcome, Message: message, Err: errors.New(outcome.String())}
}

func (f *fakeAPI) ListTelegramTasks(ctx context.Context, telegramUserID int64, limit int) apiclient.Result[[]entities.Task] {
	if f.down {
		return fail[[]entities.Task](apiclient.OutcomeTransport, "")
	}
	tasks := []entities.Task{}
	for _, task := range f.tasks {
		if task.TelegramUserID != nil && *task.TelegramUserID == telegramUserID {
			tasks = append(tasks, task)
		}
	}
	return ok(tasks)
}

func (f *fakeAPI) GetTask(ctx context.Context, id string) apiclient.Result[entities.Task] {
	task, found := f.tasks[id]
	if !found {
		return fail[entities.Task](apiclient.OutcomeNotFound, "task not found")
	}
	return ok(task)
}

func (f *fakeAPI) CreateTelegramTask(ctx context.Context, req ports.TelegramTaskRequest) apiclient.Result[entities.Task] {
	f.created = append(f.created, req)
	if f.createWith != apiclient.OutcomeOK {
		return fail[entities.Task](f.createWith, f.createMsg)
	}
	tgID := req.TelegramUserID
	task := entities.Task{
		ID:             entities.NewID(),
		Title:          req.Title,
		Description:    req.Description,
		Status:         entities.TaskStatusPending,
		Priority:       *req.Priority,
		CategoryID:     req.CategoryID,
		TelegramUserID: &tgID,
	}
	f.tasks[task.ID] = task
	return ok(task)
}

func (f *fakeAPI) MarkCompleted(ctx context.Context, id string) apiclient.Result[entities.Task] {
	f.completed = append(f.completed, id)
	task, found := f.tasks[id]
	if !found {
		return fail[entities.Task](apiclient.OutcomeNotFound, "task not found")
	}
	task.Status = entities.TaskStatusCompleted
	f.tasks[id] = task
	return ok(task)
}

func (f *fakeAPI) Stats(ctx context.Context, telegramUserID int64) apiclient.Result[entities.TaskStats] {
	if f.down {
		return fail[entities.TaskStats](apiclient.OutcomeTransport, "")
	}
	stats := entities.TaskStats{}
	for _, task := range f.tasks {
		if task.TelegramUserID != nil && *task.TelegramUserID == telegramUserID {
			stats.Add(task.Status, 1)
		}
	}
	return ok(stats)
}

func (f *fakeAPI) ListCategories(ctx context.Context) apiclient.Result[[]entities.Category] {
	if f.down {
		return fail[[]entities.Category](apiclient.OutcomeTransport, "")
	}
	return ok(f.categories)
}

var alice = Identity{ChatID: 100, UserID: 42, FirstName: "Alice"}

type harness struct {
	t      *testing.T
	api    *fakeAPI
	store  *memStore
	engine *Engine
}

func newHarness(t *testing.T) *harness {
	api := newFakeAPI()
	store := newMemStore()
	return &harness{t: t, api: api, store: store, engine: NewEngine(api, store, logger.NewNop())}
}

func (h *harness) send(id Identity, ev Event) Screen {
	h.t.Helper()
	screen, err := h.engine.Handle(context.Background(), id, ev)
	require.NoError(h.t, err)
	return screen
}

func (h *harness) session(id Identity) *Session {
	h.t.Helper()
	session, err := h.store.Load(context.Background(), id.ChatID, id.UserID)
	require.NoError(h.t, err)
	require.NotNil(h.t, session)
	return session
}

func (h *harness) state(id Identity) State {
	return h.session(id).State
}

func hasAction(screen Screen, action string) bool {
	for _, r := range screen.Buttons {
		for _, b := range r {
			if b.Action == action {
				return true
			}
		}
	}
	return false
}

func TestBuyMilkScenarioCreatesExactlyOneTask(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("/start"))
	h.send(alice, ActionEvent(ActionCreate))
	require.Equal(t, StateCreateTitle, h.state(alice))

	h.send(alice, TextEvent("Buy milk"))
	h.send(alice, ParseMessage("/skip"))
	h.send(alice, ActionEvent(ActionNoCategory))
	h.send(alice, ActionEvent(PriorityAction("high")))
	require.Equal(t, StateCreateConfirm, h.state(alice))

	screen := h.send(alice, ActionEvent(ActionConfirm))

	require.Len(t, h.api.created, 1)
	req := h.api.created[0]
	assert.Equal(t, "Buy milk", req.Title)
	assert.Equal(t, "", req.Description)
	assert.Nil(t, req.CategoryID)
	require.NotNil(t, req.Priority)
	assert.Equal(t, entities.PriorityHigh, *req.Priority)
	assert.Equal(t, int64(42), req.TelegramUserID)

	assert.Equal(t, StateTaskList, h.state(alice))
	assert.Equal(t, "✅ Task created!", screen.Notice)
	assert.Contains(t, screen.Text, "📊 Total: 1")
	assert.Equal(t, Draft{}, h.session(alice).Draft)
}

func TestBackNavigationKeepsDraft(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionCreate))
	h.send(alice, TextEvent("Write report"))
	h.send(alice, TextEvent("quarterly"))
	h.send(alice, ActionEvent(CategoryAction("cat000000001")))
	screen := h.send(alice, ActionEvent(PriorityAction("urgent")))
	assert.Contains(t, screen.Text, "🏷️ Category: Work")
	assert.Contains(t, screen.Text, "⚡ Priority: 🔴 Urgent")

	steps := []State{StateCreatePriority, StateCreateCategory, StateCreateDescription, StateCreateTitle}
	for _, want := range steps {
		h.send(alice, ActionEvent(ActionBack))
		assert.Equal(t, want, h.state(alice))

		draft := h.session(alice).Draft
		assert.Equal(t, "Write report", draft.Title)
		assert.Equal(t, "quarterly", draft.Description)
	}

	h.send(alice, ActionEvent(ActionBack))
	assert.Equal(t, StateMainMenu, h.state(alice))
	assert.Equal(t, Draft{}, h.session(alice).Draft)
	assert.Empty(t, h.api.created)
}

func TestStartDiscardsDraft(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionCreate))
	h.send(alice, TextEvent("Half done"))

	screen := h.send(alice, CommandEvent("start"))
	assert.Equal(t, StateMainMenu, h.state(alice))
	assert.Equal(t, Draft{}, h.session(alice).Draft)
	assert.Contains(t, screen.Text, "👋 Hello, Alice!")
	assert.Empty(t, h.api.created)
}

func TestConfirmFailureStaysInConfirm(t *testing.T) {
	tests := []struct {
		name    string
		outcome apiclient.Outcome
		message string
		notice  string
	}{
		{"validation", apiclient.OutcomeInvalid, "Validation failed", "❌ The task was rejected: Validation failed"},
		{"transport", apiclient.OutcomeTransport, "", "❌ Task service is unavailable, try again later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.createWith = tt.outcome
			h.api.createMsg = tt.message

			h.send(alice, CommandEvent("start"))
			h.send(alice, ActionEvent(ActionCreate))
			h.send(alice, TextEvent("Pay rent"))
			h.send(alice, ActionEvent(ActionSkip))
			h.send(alice, ActionEvent(ActionNoCategory))
			h.send(alice, ActionEvent(PriorityAction("medium")))

			screen := h.send(alice, ActionEvent(ActionConfirm))
			assert.Equal(t, tt.notice, screen.Notice)
			assert.Equal(t, StateCreateConfirm, h.state(alice))
			assert.Equal(t, "Pay rent", h.session(alice).Draft.Title)
			assert.True(t, hasAction(screen, ActionConfirm))
		})
	}
}

func TestEmptyTitleIsRejected(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionCreate))
	screen := h.send(alice, TextEvent("   "))

	assert.Equal(t, "Title cannot be empty", screen.Notice)
	assert.Equal(t, StateCreateTitle, h.state(alice))
}

func TestTaskListDetailAndComplete(t *testing.T) {
	h := newHarness(t)
	tgID := alice.UserID
	category := "Work"
	h.api.tasks["task00000001"] = entities.Task{
		ID:             "task00000001",
		Title:          "Ship release",
		Status:         entities.TaskStatusPending,
		Priority:       entities.PriorityHigh,
		CategoryName:   &category,
		TelegramUserID: &tgID,
		CreatedAt:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	h.send(alice, CommandEvent("start"))
	list := h.send(alice, ActionEvent(ActionTasks))
	assert.Contains(t, list.Text, "📊 Total: 1")
	assert.Contains(t, list.Text, "⏳ Pending: 1")
	require.True(t, hasAction(list, TaskAction("task00000001")))
	assert.Equal(t, "📝 Ship release (Pending)", list.Buttons[0][0].Label)

	detail := h.send(alice, ActionEvent(TaskAction("task00000001")))
	assert.Equal(t, StateTaskDetail, h.state(alice))
	assert.Contains(t, detail.Text, "📝 Ship release")
	assert.Contains(t, detail.Text, "📄 Description: —")
	assert.Contains(t, detail.Text, "🏷️ Category: Work")
	assert.Contains(t, detail.Text, "📅 Created: 01.03.2024")
	require.True(t, hasAction(detail, ActionComplete))

	after := h.send(alice, ActionEvent(ActionComplete))
	assert.Equal(t, []string{"task00000001"}, h.api.completed)
	assert.Equal(t, "✅ Task completed!", after.Notice)
	assert.Equal(t, StateTaskList, h.state(alice))
	assert.Contains(t, after.Text, "✅ Completed: 1")

	detail = h.send(alice, ActionEvent(TaskAction("task00000001")))
	assert.False(t, hasAction(detail, ActionComplete))
}

func TestTaskDetailToleratesMissingTask(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionTasks))
	screen := h.send(alice, ActionEvent(TaskAction("gone00000000")))

	assert.Equal(t, "Task not found", screen.Text)
	assert.True(t, hasAction(screen, ActionBack))

	h.send(alice, ActionEvent(ActionBack))
	assert.Equal(t, StateTaskList, h.state(alice))
	h.send(alice, ActionEvent(ActionBack))
	assert.Equal(t, StateMainMenu, h.state(alice))
}

func TestRendersDegradeWhenAPIIsDown(t *testing.T) {
	h := newHarness(t)
	h.api.down = true

	h.send(alice, CommandEvent("start"))
	list := h.send(alice, ActionEvent(ActionTasks))
	assert.Contains(t, list.Text, "📊 Total: —")
	assert.Contains(t, list.Text, "Tasks are unavailable")

	h.send(alice, ActionEvent(ActionCreate))
	h.send(alice, TextEvent("Offline task"))
	categories := h.send(alice, TextEvent("desc"))
	assert.Contains(t, categories.Text, "Categories are unavailable")
	assert.True(t, hasAction(categories, ActionNoCategory))
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	h := newHarness(t)
	bob := Identity{ChatID: 200, UserID: 7, FirstName: "Bob"}

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionCreate))
	h.send(bob, CommandEvent("start"))
	h.send(bob, ActionEvent(ActionTasks))

	assert.Equal(t, StateCreateTitle, h.state(alice))
	assert.Equal(t, StateTaskList, h.state(bob))
}

func TestMenuActionReturnsHomeFromAnywhere(t *testing.T) {
	h := newHarness(t)

	h.send(alice, CommandEvent("start"))
	h.send(alice, ActionEvent(ActionCreate))
	h.send(alice, TextEvent("Something"))
	screen := h.send(alice, ActionEvent(ActionMenu))

	assert.Equal(t, StateMainMenu, h.state(alice))
	assert.True(t, hasAction(screen, ActionTasks))
	assert.Equal(t, Draft{}, h.session(alice).Draft)
}

func TestUnknownSessionStartsAtMainMenu(t *testing.T) {
	h := newHarness(t)

	screen := h.send(alice, TextEvent("hello"))
	assert.Equal(t, StateMainMenu, h.state(alice))
	assert.True(t, hasAction(screen, ActionCreate))
}

func TestParseMessage(t *testing.T) {
	assert.Equal(t, CommandEvent("start"), ParseMessage("/start"))
	assert.Equal(t, CommandEvent("skip"), ParseMessage("/skip@todo_bot"))
	assert.Equal(t, TextEvent("Buy milk"), ParseMessage("Buy milk"))
}
