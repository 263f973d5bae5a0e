package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// fakeStore is an in-memory stand-in for the database shared by the fake repositories
type fakeStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*entities.User
	categories map[string]*entities.Category
	tasks      map[string]*entities.Task
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uuid.UUID]*entities.User{},
		categories: map[string]*entities.Category{},
		tasks:      map[string]*entities.Task{},
	}
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetOrCreate(ctx context.Context, user *entities.User) (*entities.User, bool, error) {
	if existing, err := r.GetByUsername(ctx, user.Username); err == nil {
		return existing, false, nil
	}
	if err := r.Create(ctx, user); err != nil {
		return nil, false, err
	}
	stored, err := r.GetByID(ctx, user.ID)
	return stored, true, err
}

type fakeCategoryRepo struct{ s *fakeStore }

func (r *fakeCategoryRepo) Create(ctx context.Context, category *entities.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if existing.Name == category.Name {
			return entities.ErrDuplicateCategory
		}
	}
	stored := *category
	r.s.categories[category.ID] = &stored
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*entities.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	category, ok := r.s.categories[id]
	if !ok {
		return nil, entities.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *entities.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[category.ID]; !ok {
		return entities.ErrCategoryNotFound
	}
	stored := *category
	r.s.categories[category.ID] = &stored
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return entities.ErrCategoryNotFound
	}
	for _, task := range r.s.tasks {
		if task.CategoryID != nil && *task.CategoryID == id {
			task.CategoryID = nil
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *fakeCategoryRepo) List(ctx context.Context, filter ports.CategoryFilter) ([]*entities.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	categories := []*entities.Category{}
	for _, category := range r.s.categories {
		copied := *category
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *fakeCategoryRepo) GetOrCreate(ctx context.Context, category *entities.Category) (*entities.Category, bool, error) {
	r.s.mu.Lock()
	for _, existing := range r.s.categories {
		if existing.Name == category.Name {
			copied := *existing
			r.s.mu.Unlock()
			return &copied, false, nil
		}
	}
	r.s.mu.Unlock()
	if err := r.Create(ctx, category); err != nil {
		return nil, false, err
	}
	stored, err := r.GetByID(ctx, category.ID)
	return stored, true, err
}

type fakeTaskRepo struct {
	s   *fakeStore
	err error
}

func (r *fakeTaskRepo) hydrate(task *entities.Task) *entities.Task {
	copied := *task
	copied.CategoryName = nil
	if task.CategoryID != nil {
		if category, ok := r.s.categories[*task.CategoryID]; ok {
			name := category.Name
			copied.CategoryName = &name
		}
	}
	if user, ok := r.s.users[task.UserID]; ok {
		copied.UserUsername = user.Username
	}
	return &copied
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	if r.err != nil {
		return r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *task
	r.s.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return r.hydrate(task), nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	stored := *task
	r.s.tasks[task.ID] = &stored
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *fakeTaskRepo) matches(task *entities.Task, filter ports.TaskFilter) bool {
	if filter.Status != nil && task.Status != *filter.Status {
		return false
	}
	if filter.TelegramUserID != nil && (task.TelegramUserID == nil || *task.TelegramUserID != *filter.TelegramUserID) {
		return false
	}
	if filter.Overdue && !isOpenOverdue(task, filter.Now) {
		return false
	}
	return true
}

func (r *fakeTaskRepo) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []*entities.Task{}
	for _, task := range r.s.tasks {
		if r.matches(task, filter) {
			matched = append(matched, r.hydrate(task))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if filter.Offset >= len(matched) {
		return []*entities.Task{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeTaskRepo) Stats(ctx context.Context, telegramUserID *int64, now time.Time) (*entities.TaskStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &entities.TaskStats{}
	for _, task := range r.s.tasks {
		if telegramUserID != nil && (task.TelegramUserID == nil || *task.TelegramUserID != *telegramUserID) {
			continue
		}
		stats.Add(task.Status, 1)
		if isOpenOverdue(task, now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (r *fakeTaskRepo) GetOverdue(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tasks := []*entities.Task{}
	for _, task := range r.s.tasks {
		if isOpenOverdue(task, now) {
			tasks = append(tasks, r.hydrate(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(*tasks[j].DueDate) })
	return tasks, nil
}

func isOpenOverdue(task *entities.Task, now time.Time) bool {
	open := task.Status == entities.TaskStatusPending || task.Status == entities.TaskStatusInProgress
	return open && task.DueDate != nil && task.DueDate.Before(now)
}

type fakeReminderQueue struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newFakeReminderQueue() *fakeReminderQueue {
	return &fakeReminderQueue{entries: map[string]time.Time{}}
}

func (q *fakeReminderQueue) Schedule(ctx context.Context, taskID string, notifyAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[taskID] = notifyAt
	return nil
}

func (q *fakeReminderQueue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := []string{}
	for id, at := range q.entries {
		if !at.After(now) {
			ids = append(ids, id)
			delete(q.entries, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type sentMessage struct {
	UserID  int64
	Message string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn   map[int64]bool
	disabled bool
}

func (f *fakeSender) Send(ctx context.Context, telegramUserID int64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disabled {
		return ports.ErrNotifierDisabled
	}
	if f.failOn[telegramUserID] {
		return errors.New("gateway returned 502")
	}
	f.sent = append(f.sent, sentMessage{UserID: telegramUserID, Message: message})
	return nil
}

type fixture struct {
	store      *fakeStore
	users      *UserService
	categories *CategoryService
	tasks      *TaskService
	taskRepo   *fakeTaskRepo
	reminders  *fakeReminderQueue
	now        time.Time
}

func newFixture() *fixture {
	store := newFakeStore()
	log := logger.NewNop()
	users := NewUserService(&fakeUserRepo{s: store}, log)
	categoryRepo := &fakeCategoryRepo{s: store}
	taskRepo := &fakeTaskRepo{s: store}
	reminders := newFakeReminderQueue()
	tasks := NewTaskService(taskRepo, categoryRepo, users, reminders, log)

	f := &fixture{
		store:      store,
		users:      users,
		categories: NewCategoryService(categoryRepo, log),
		tasks:      tasks,
		taskRepo:   taskRepo,
		reminders:  reminders,
		now:        time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	tasks.now = func() time.Time { return f.now }
	return f
}

func ptr[T any](v T) *T {
	return &v
}
