package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todobot/core/internal/dialog"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
)

type fakeAPI struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	stopped  bool
	sendErr  func(c tgbotapi.Chattable) error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type call struct {
	id dialog.Identity
	ev dialog.Event
}

type fakeDialog struct {
	screen dialog.Screen
	err    error
	calls  []call
}

func (d *fakeDialog) Handle(ctx context.Context, id dialog.Identity, ev dialog.Event) (dialog.Screen, error) {
	d.calls = append(d.calls, call{id: id, ev: ev})
	return d.screen, d.err
}

func menuScreen() dialog.Screen {
	return dialog.Screen{
		Text: "👋 Hello, Ann!",
		Buttons: [][]dialog.Button{
			{{Label: "📋 My tasks", Action: dialog.ActionTasks}},
			{{Label: "➕ Create task", Action: dialog.ActionCreate}},
		},
	}
}

func newTestBot(api API, d Dialog) *Bot {
	return NewBot(api, d, config.BotConfig{PollTimeout: 1}, logger.NewNop())
}

func messageUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 5,
			Chat:      &tgbotapi.Chat{ID: 100},
			From:      &tgbotapi.User{ID: 42, FirstName: "Ann"},
			Text:      text,
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: 42, FirstName: "Ann"},
			Message: &tgbotapi.Message{
				MessageID: 9,
				Chat:      &tgbotapi.Chat{ID: 100},
			},
			Data: data,
		},
	}
}

func TestHandleMessageSendsScreen(t *testing.T) {
	api := newFakeAPI()
	d := &fakeDialog{screen: menuScreen()}
	bot := newTestBot(api, d)

	bot.HandleUpdate(context.Background(), messageUpdate("/start@todo_bot"))

	require.Len(t, d.calls, 1)
	assert.Equal(t, dialog.Identity{ChatID: 100, UserID: 42, FirstName: "Ann"}, d.calls[0].id)
	assert.Equal(t, dialog.CommandEvent(dialog.CommandStart), d.calls[0].ev)

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Equal(t, "👋 Hello, Ann!", msg.Text)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "📋 My tasks", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, dialog.ActionTasks, *markup.InlineKeyboard[0][0].CallbackData)
}

func TestHandleMessagePrependsNotice(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(api, &fakeDialog{screen: dialog.Screen{Text: "Enter the task title:", Notice: "Title cannot be empty"}})

	bot.HandleUpdate(context.Background(), messageUpdate("   "))

	require.Len(t, api.sent, 1)
	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, "Title cannot be empty\n\nEnter the task title:", msg.Text)
	assert.Nil(t, msg.ReplyMarkup)
}

func TestHandleMessageDialogFailure(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(api, &fakeDialog{err: errors.New("redis down")})

	bot.HandleUpdate(context.Background(), messageUpdate("hello"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, fallbackText, api.sent[0].(tgbotapi.MessageConfig).Text)
}

func TestHandleCallbackEditsMessage(t *testing.T) {
	api := newFakeAPI()
	screen := menuScreen()
	screen.Notice = "✅ Task created!"
	d := &fakeDialog{screen: screen}
	bot := newTestBot(api, d)

	bot.HandleUpdate(context.Background(), callbackUpdate(dialog.ActionConfirm))

	require.Len(t, d.calls, 1)
	assert.Equal(t, dialog.ActionEvent(dialog.ActionConfirm), d.calls[0].ev)

	require.Len(t, api.requests, 1)
	answer := api.requests[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, "cb-1", answer.CallbackQueryID)
	assert.Equal(t, "✅ Task created!", answer.Text)

	require.Len(t, api.sent, 1)
	edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, 9, edit.MessageID)
	assert.Equal(t, "👋 Hello, Ann!", edit.Text)
	require.NotNil(t, edit.ReplyMarkup)
}

func TestHandleCallbackFallsBackToNewMessage(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			return errors.New("message can't be edited")
		}
		return nil
	}
	bot := newTestBot(api, &fakeDialog{screen: menuScreen()})

	bot.HandleUpdate(context.Background(), callbackUpdate(dialog.ActionMenu))

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100), msg.ChatID)
}

func TestHandleCallbackUnchangedScreenIsNotResent(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			return &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified: specified new message content and reply markup are exactly the same"}
		}
		return nil
	}
	bot := newTestBot(api, &fakeDialog{screen: menuScreen()})

	bot.HandleUpdate(context.Background(), callbackUpdate(dialog.ActionMenu))

	assert.Len(t, api.requests, 1)
	assert.Zero(t, api.sentCount())
}

func TestSend(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(api, &fakeDialog{})

	require.NoError(t, bot.Send(context.Background(), 42, "⏰ Task reminder!"))

	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "⏰ Task reminder!", msg.Text)

	api.sendErr = func(tgbotapi.Chattable) error { return errors.New("Forbidden: bot was blocked by the user") }
	assert.Error(t, bot.Send(context.Background(), 42, "hi"))
}

func TestSendRespectsCancelledContext(t *testing.T) {
	api := newFakeAPI()
	bot := NewBot(api, &fakeDialog{}, config.BotConfig{SendRatePerSec: 1}, logger.NewNop())

	require.NoError(t, bot.Send(context.Background(), 42, "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, bot.Send(ctx, 42, "second"))
	assert.Equal(t, 1, api.sentCount())
}

func TestRunHandlesUpdatesUntilCancelled(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(api, &fakeDialog{screen: menuScreen()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- messageUpdate("/start")
	api.updates <- messageUpdate("hello")

	require.Eventually(t, func() bool { return api.sentCount() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
}
