package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

const (
	notificationKindOverdue  = "overdue"
	notificationKindReminder = "reminder"

	resultSent    = "sent"
	resultFailed  = "failed"
	resultSkipped = "skipped"

	dueDateLayout = "02.01.2006 15:04"
)

// NotificationMetrics counts dispatched notifications by kind and result
type NotificationMetrics struct {
	notifications *prometheus.CounterVec
}

// NewNotificationMetrics creates the dispatcher counters and registers them with reg
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todobot_notifications_total",
				Help: "Total number of task notifications by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
	reg.MustRegister(m.notifications)
	return m
}

func (m *NotificationMetrics) observe(kind, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// ScanResult summarizes one overdue scan or reminder poll
type ScanResult struct {
	Found   int
	Sent    int
	Failed  int
	Skipped int
}

// NotificationService pushes overdue notices and scheduled reminders to chat users
type NotificationService struct {
	taskRepo  ports.TaskRepository
	reminders ports.ReminderQueue
	sender    ports.NotificationSender
	cfg       config.NotifierConfig
	metrics   *NotificationMetrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	taskRepo ports.TaskRepository,
	reminders ports.ReminderQueue,
	sender ports.NotificationSender,
	cfg config.NotifierConfig,
	metrics *NotificationMetrics,
	logger *logger.Logger,
) *NotificationService {
	return &NotificationService{
		taskRepo:  taskRepo,
		reminders: reminders,
		sender:    sender,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger.WithComponent("notifier"),
		now:       time.Now,
	}
}

// Run scans for overdue tasks at start and every scan interval, and polls due
// reminders every poll interval, until ctx is cancelled.
func (s *NotificationService) Run(ctx context.Context) error {
	scanTicker := time.NewTicker(s.cfg.ScanInterval)
	defer scanTicker.Stop()
	reminderTicker := time.NewTicker(s.cfg.ReminderPollInterval)
	defer reminderTicker.Stop()

	s.logger.Infow("Notification dispatcher started",
		"scan_interval", s.cfg.ScanInterval,
		"reminder_poll_interval", s.cfg.ReminderPollInterval,
	)

	s.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification dispatcher stopped")
			return nil
		case <-scanTicker.C:
			s.runScan(ctx)
		case <-reminderTicker.C:
			if _, err := s.ProcessReminders(ctx); err != nil {
				s.logger.WithError(err).Error("Reminder poll failed")
			}
		}
	}
}

func (s *NotificationService) runScan(ctx context.Context) {
	result, err := s.ScanOverdue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Overdue scan failed")
		return
	}
	s.logger.Infow("Overdue scan finished",
		"found", result.Found,
		"sent", result.Sent,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
}

// ScanOverdue notifies the owner of every open task past its due date.
// A failure for one task is logged and the scan moves on.
func (s *NotificationService) ScanOverdue(ctx context.Context) (ScanResult, error) {
	tasks, err := s.taskRepo.GetOverdue(ctx, s.now())
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to load overdue tasks: %w", err)
	}

	result := ScanResult{Found: len(tasks)}
	for _, task := range tasks {
		s.notify(ctx, notificationKindOverdue, task, FormatOverdueMessage(task), &result)
	}

	return result, nil
}

// ProcessReminders fires every reminder that has come due
func (s *NotificationService) ProcessReminders(ctx context.Context) (ScanResult, error) {
	taskIDs, err := s.reminders.ClaimDue(ctx, s.now(), s.cfg.ReminderBatchSize)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to claim reminders: %w", err)
	}

	result := ScanResult{Found: len(taskIDs)}
	for _, taskID := range taskIDs {
		task, err := s.taskRepo.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, entities.ErrTaskNotFound) {
				s.logger.Errorw("Reminder task no longer exists", "task_id", taskID)
			} else {
				s.logger.Errorw("Failed to load reminder task", "task_id", taskID, "error", err)
			}
			result.Failed++
			s.metrics.observe(notificationKindReminder, resultFailed)
			continue
		}

		if task.IsCompleted() {
			s.logger.Infow("Skipping reminder for completed task", "task_id", taskID)
			result.Skipped++
			s.metrics.observe(notificationKindReminder, resultSkipped)
			continue
		}

		s.notify(ctx, notificationKindReminder, task, FormatReminderMessage(task), &result)
	}

	return result, nil
}

func (s *NotificationService) notify(ctx context.Context, kind string, task *entities.Task, message string, result *ScanResult) {
	if task.TelegramUserID == nil {
		result.Skipped++
		s.metrics.observe(kind, resultSkipped)
		return
	}

	err := s.sender.Send(ctx, *task.TelegramUserID, message)
	if errors.Is(err, ports.ErrNotifierDisabled) {
		s.logger.Warnw("Notification dropped, no gateway configured", "kind", kind, "task_id", task.ID)
		result.Skipped++
		s.metrics.observe(kind, resultSkipped)
		return
	}
	if err != nil {
		s.logger.Errorw("Failed to send notification",
			"kind", kind,
			"task_id", task.ID,
			"telegram_user_id", *task.TelegramUserID,
			"error", err,
		)
		result.Failed++
		s.metrics.observe(kind, resultFailed)
		return
	}

	s.logger.Infow("Notification sent", "kind", kind, "task_id", task.ID, "telegram_user_id", *task.TelegramUserID)
	result.Sent++
	s.metrics.observe(kind, resultSent)
}

// FormatOverdueMessage renders the overdue notice for task
func FormatOverdueMessage(task *entities.Task) string {
	return fmt.Sprintf("🚨 Task overdue!\n\n📝 %s\n📅 Was due: %s\n🏷️ Category: %s",
		task.Title, formatDueDate(task.DueDate), categoryLabel(task))
}

// FormatReminderMessage renders the one-shot reminder for task
func FormatReminderMessage(task *entities.Task) string {
	return fmt.Sprintf("⏰ Task reminder!\n\n📝 %s\n📅 Due: %s\n🏷️ Category: %s",
		task.Title, formatDueDate(task.DueDate), categoryLabel(task))
}

func formatDueDate(due *time.Time) string {
	if due == nil {
		return "—"
	}
	return due.Format(dueDateLayout)
}

func categoryLabel(task *entities.Task) string {
	if task.CategoryName == nil || *task.CategoryName == "" {
		return "No category"
	}
	return *task.CategoryName
}
