package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/todobot/core/internal/domain/entities"
)

const (
	placeholder     = "—"
	noCategoryLabel = "No category"
	dateLayout      = "02.01.2006"
)

var priorityLabels = map[entities.Priority]string{
	entities.PriorityLow:    "🟢 Low",
	entities.PriorityMedium: "🟡 Medium",
	entities.PriorityHigh:   "🟠 High",
	entities.PriorityUrgent: "🔴 Urgent",
}

var statusLabels = map[entities.TaskStatus]string{
	entities.TaskStatusPending:    "Pending",
	entities.TaskStatusInProgress: "In progress",
	entities.TaskStatusCompleted:  "Completed",
	entities.TaskStatusCancelled:  "Cancelled",
}

var (
	backButton = Button{Label: "⬅️ Back", Action: ActionBack}
	menuButton = Button{Label: "🏠 Main menu", Action: ActionMenu}
)

func (e *Engine) render(ctx context.Context, s *Session, id Identity) Screen {
	switch s.State {
	case StateTaskList:
		return e.renderTaskList(ctx, s)
	case StateTaskDetail:
		return e.renderTaskDetail(ctx, s)
	case StateCreateTitle:
		return Screen{
			Text:    "✏️ Enter the task title:",
			Buttons: [][]Button{row(backButton)},
		}
	case StateCreateDescription:
		return Screen{
			Text: fmt.Sprintf("📝 Title: %s\n\n📄 Enter the task description or send /skip:", s.Draft.Title),
			Buttons: [][]Button{
				row(Button{Label: "⏭️ Skip", Action: ActionSkip}),
				row(backButton),
			},
		}
	case StateCreateCategory:
		return e.renderCreateCategory(ctx)
	case StateCreatePriority:
		buttons := make([][]Button, 0, len(entities.Priorities)+1)
		for _, priority := range entities.Priorities {
			buttons = append(buttons, row(Button{Label: priorityLabels[priority], Action: PriorityAction(string(priority))}))
		}
		buttons = append(buttons, row(backButton))
		return Screen{Text: "⚡ Choose the task priority:", Buttons: buttons}
	case StateCreateConfirm:
		return Screen{
			Text: fmt.Sprintf("📋 Check the new task:\n\n📝 Title: %s\n📄 Description: %s\n🏷️ Category: %s\n⚡ Priority: %s",
				orPlaceholder(s.Draft.Title),
				orPlaceholder(s.Draft.Description),
				draftCategoryLabel(s.Draft),
				priorityLabel(s.Draft.Priority),
			),
			Buttons: [][]Button{
				row(Button{Label: "✅ Create", Action: ActionConfirm}),
				row(backButton),
			},
		}
	default:
		return renderMainMenu(id)
	}
}

func renderMainMenu(id Identity) Screen {
	name := id.FirstName
	if name == "" {
		name = "there"
	}
	return Screen{
		Text: fmt.Sprintf("👋 Hello, %s!\n\nI will help you keep track of your tasks. Choose an action:", name),
		Buttons: [][]Button{
			row(Button{Label: "📋 My tasks", Action: ActionTasks}),
			row(Button{Label: "➕ Create task", Action: ActionCreate}),
		},
	}
}

func (e *Engine) renderTaskList(ctx context.Context, s *Session) Screen {
	var b strings.Builder
	b.WriteString("📋 Your tasks\n\n")

	stats := e.api.Stats(ctx, s.UserID)
	if stats.OK() {
		fmt.Fprintf(&b, "📊 Total: %d\n⏳ Pending: %d\n✅ Completed: %d\n🚨 Overdue: %d",
			stats.Value.Total, stats.Value.Pending, stats.Value.Completed, stats.Value.Overdue)
	} else {
		fmt.Fprintf(&b, "📊 Total: %s\n⏳ Pending: %s\n✅ Completed: %s\n🚨 Overdue: %s",
			placeholder, placeholder, placeholder, placeholder)
	}

	buttons := [][]Button{}
	tasks := e.api.ListTelegramTasks(ctx, s.UserID, taskListLimit)
	switch {
	case !tasks.OK():
		b.WriteString("\n\n⚠️ Tasks are unavailable right now")
	case len(tasks.Value) == 0:
		b.WriteString("\n\nYou have no tasks yet")
	default:
		for _, task := range tasks.Value {
			label := fmt.Sprintf("📝 %s (%s)", task.Title, statusLabel(task.Status))
			buttons = append(buttons, row(Button{Label: label, Action: TaskAction(task.ID)}))
		}
	}

	buttons = append(buttons,
		row(Button{Label: "➕ Create task", Action: ActionCreate}),
		row(backButton),
	)
	return Screen{Text: b.String(), Buttons: buttons}
}

func (e *Engine) renderTaskDetail(ctx context.Context, s *Session) Screen {
	result := e.api.GetTask(ctx, s.SelectedTaskID)
	if !result.OK() {
		return Screen{
			Text:    "Task not found",
			Buttons: [][]Button{row(backButton), row(menuButton)},
		}
	}

	task := result.Value
	text := fmt.Sprintf("📝 %s\n\n📄 Description: %s\n📊 Status: %s\n⚡ Priority: %s\n🏷️ Category: %s\n📅 Created: %s",
		task.Title,
		orPlaceholder(task.Description),
		statusLabel(task.Status),
		priorityLabel(task.Priority),
		taskCategoryLabel(task),
		task.CreatedAt.Format(dateLayout),
	)
	if task.DueDate != nil {
		text += "\n⏰ Due: " + task.DueDate.Format(dateLayout+" 15:04")
	}

	buttons := [][]Button{}
	if !task.IsCompleted() {
		buttons = append(buttons, row(Button{Label: "✅ Mark completed", Action: ActionComplete}))
	}
	buttons = append(buttons, row(backButton))

	return Screen{Text: text, Buttons: buttons}
}

func (e *Engine) renderCreateCategory(ctx context.Context) Screen {
	text := "🏷️ Choose a category:"
	buttons := [][]Button{}

	result := e.api.ListCategories(ctx)
	if result.OK() {
		for _, category := range result.Value {
			buttons = append(buttons, row(Button{Label: "🏷️ " + category.Name, Action: CategoryAction(category.ID)}))
		}
	} else {
		text += "\n\n⚠️ Categories are unavailable right now"
	}

	buttons = append(buttons,
		row(Button{Label: "🚫 " + noCategoryLabel, Action: ActionNoCategory}),
		row(backButton),
	)
	return Screen{Text: text, Buttons: buttons}
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func priorityLabel(p entities.Priority) string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return placeholder
}

func statusLabel(status entities.TaskStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return placeholder
}

func taskCategoryLabel(task entities.Task) string {
	if task.CategoryName == nil || *task.CategoryName == "" {
		return noCategoryLabel
	}
	return *task.CategoryName
}

func draftCategoryLabel(d Draft) string {
	switch {
	case d.CategoryID == nil:
		return noCategoryLabel
	case d.CategoryName != "":
		return d.CategoryName
	default:
		return "#" + *d.CategoryID
	}
}

