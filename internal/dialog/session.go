package dialog

import (
	"context"
	"fmt"

	"github.com/todobot/core/internal/domain/entities"
)

// State is one step of the conversation
type State string

const (
	StateMainMenu          State = "main_menu"
	StateTaskList          State = "task_list"
	StateTaskDetail        State = "task_detail"
	StateCreateTitle       State = "create_title"
	StateCreateDescription State = "create_description"
	StateCreateCategory    State = "create_category"
	StateCreatePriority    State = "create_priority"
	StateCreateConfirm     State = "create_confirm"
)

// Identity names the chat and the user a session belongs to
type Identity struct {
	ChatID    int64
	UserID    int64
	FirstName string
}

// Draft accumulates the fields of a task being created
type Draft struct {
	Title        string            `json:"task_title"`
	Description  string            `json:"task_description"`
	CategoryID   *string           `json:"task_category"`
	CategoryName string            `json:"task_category_name,omitempty"`
	Priority     entities.Priority `json:"task_priority,omitempty"`
}

// Session is the per-chat dialog context persisted between updates
type Session struct {
	ChatID         int64  `json:"chat_id"`
	UserID         int64  `json:"user_id"`
	State          State  `json:"state"`
	Draft          Draft  `json:"draft"`
	SelectedTaskID string `json:"selected_task_id,omitempty"`
}

// NewSession starts a session at the main menu with an empty draft
func NewSession(id Identity) *Session {
	return &Session{
		ChatID: id.ChatID,
		UserID: id.UserID,
		State:  StateMainMenu,
	}
}

// Key identifies the session in a store
func (s *Session) Key() string {
	return SessionKey(s.ChatID, s.UserID)
}

// SessionKey builds the store key for a chat and user
func SessionKey(chatID, userID int64) string {
	return fmt.Sprintf("dialog:%d:%d", chatID, userID)
}

// resetDraft abandons the task being created
func (s *Session) resetDraft() {
	s.Draft = Draft{}
}

// SessionStore persists sessions between updates.
// Load returns nil and no error when no session exists.
type SessionStore interface {
	Load(ctx context.Context, chatID, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
}
