package dialog

import "strings"

// Actions carried by buttons
const (
	ActionTasks      = "tasks"
	ActionCreate     = "create"
	ActionMenu       = "menu"
	ActionBack       = "back"
	ActionComplete   = "complete"
	ActionSkip       = "skip"
	ActionNoCategory = "no_category"
	ActionConfirm    = "confirm"

	actionTaskPrefix     = "task:"
	actionCategoryPrefix = "category:"
	actionPriorityPrefix = "priority:"
)

// Commands understood in text messages
const (
	CommandStart = "start"
	CommandSkip  = "skip"
)

// EventKind tells how the user produced an event
type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventAction
)

// Event is one user input
type Event struct {
	Kind EventKind
	// Value is the message text, the command name without slash, or the button action.
	Value string
}

func TextEvent(text string) Event {
	return Event{Kind: EventText, Value: text}
}

func CommandEvent(name string) Event {
	return Event{Kind: EventCommand, Value: strings.TrimPrefix(name, "/")}
}

func ActionEvent(action string) Event {
	return Event{Kind: EventAction, Value: action}
}

// ParseMessage turns a chat message into a command or text event
func ParseMessage(text string) Event {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		name := strings.Fields(trimmed)[0]
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}
		return CommandEvent(name)
	}
	return TextEvent(text)
}

func (e Event) is(kind EventKind, value string) bool {
	return e.Kind == kind && e.Value == value
}

// actionArg returns the argument of a prefixed action such as "task:<id>"
func (e Event) actionArg(prefix string) (string, bool) {
	if e.Kind != EventAction || !strings.HasPrefix(e.Value, prefix) {
		return "", false
	}
	arg := strings.TrimPrefix(e.Value, prefix)
	return arg, arg != ""
}

// Button is an inline keyboard button
type Button struct {
	Label  string
	Action string
}

// Screen is what the user sees after an event
type Screen struct {
	Text    string
	Buttons [][]Button
	// Notice is a short status line about the event just handled.
	Notice string
}

func row(buttons ...Button) []Button {
	return buttons
}

func TaskAction(id string) string {
	return actionTaskPrefix + id
}

func CategoryAction(id string) string {
	return actionCategoryPrefix + id
}

func PriorityAction(p string) string {
	return actionPriorityPrefix + p
}
