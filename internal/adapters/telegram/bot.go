package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/todobot/core/internal/dialog"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
)

const fallbackText = "❌ Something went wrong, please try again or send /start"

// API is the part of the Telegram Bot API client the bot uses
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dialog turns one user event into the next screen
type Dialog interface {
	Handle(ctx context.Context, id dialog.Identity, ev dialog.Event) (dialog.Screen, error)
}

// Bot drives the dialog engine from Telegram updates and delivers notifications
type Bot struct {
	api         API
	dialog      Dialog
	limiter     *rate.Limiter
	pollTimeout int
	logger      *logger.Logger
}

// Connect authenticates with the Bot API using token
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// NewBot creates a bot; outbound messages are throttled to cfg.SendRatePerSec
func NewBot(api API, engine Dialog, cfg config.BotConfig, log *logger.Logger) *Bot {
	limit := rate.Inf
	burst := 1
	if cfg.SendRatePerSec > 0 {
		limit = rate.Limit(cfg.SendRatePerSec)
		burst = int(cfg.SendRatePerSec)
		if burst < 1 {
			burst = 1
		}
	}

	return &Bot{
		api:         api,
		dialog:      engine,
		limiter:     rate.NewLimiter(limit, burst),
		pollTimeout: cfg.PollTimeout,
		logger:      log.WithComponent("telegram"),
	}
}

// Run long-polls for updates and handles them one at a time until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Infow("Polling for updates", "timeout_sec", b.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopped polling for updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes a message or button press through the dialog
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	id := identity(msg.Chat, msg.From)

	screen, err := b.dialog.Handle(ctx, id, dialog.ParseMessage(msg.Text))
	if err != nil {
		b.logger.WithTelegramUser(id.UserID).Errorw("Failed to handle message", "chat_id", id.ChatID, "error", err)
		b.reply(ctx, tgbotapi.NewMessage(id.ChatID, fallbackText))
		return
	}

	text := screen.Text
	if screen.Notice != "" {
		text = screen.Notice + "\n\n" + text
	}

	reply := tgbotapi.NewMessage(id.ChatID, text)
	if len(screen.Buttons) > 0 {
		reply.ReplyMarkup = keyboard(screen.Buttons)
	}
	b.reply(ctx, reply)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		b.answer(query.ID, "")
		return
	}
	id := identity(query.Message.Chat, query.From)

	screen, err := b.dialog.Handle(ctx, id, dialog.ActionEvent(query.Data))
	if err != nil {
		b.logger.WithTelegramUser(id.UserID).Errorw("Failed to handle button", "chat_id", id.ChatID, "action", query.Data, "error", err)
		b.answer(query.ID, fallbackText)
		return
	}

	b.answer(query.ID, screen.Notice)

	var edit tgbotapi.EditMessageTextConfig
	if len(screen.Buttons) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(id.ChatID, query.Message.MessageID, screen.Text, keyboard(screen.Buttons))
	} else {
		edit = tgbotapi.NewEditMessageText(id.ChatID, query.Message.MessageID, screen.Text)
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Send(edit); err != nil {
		if isNotModified(err) {
			return
		}
		// The message may be too old to edit; show the screen as a new one.
		b.logger.Debugw("Failed to edit message", "chat_id", id.ChatID, "error", err)
		reply := tgbotapi.NewMessage(id.ChatID, screen.Text)
		if len(screen.Buttons) > 0 {
			reply.ReplyMarkup = keyboard(screen.Buttons)
		}
		b.reply(ctx, reply)
	}
}

// Send delivers a plain text message to a chat user
func (b *Bot) Send(ctx context.Context, telegramUserID int64, message string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send to %d: %w", telegramUserID, err)
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(telegramUserID, message)); err != nil {
		return fmt.Errorf("send to %d: %w", telegramUserID, err)
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, msg tgbotapi.MessageConfig) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorw("Failed to send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warnw("Failed to answer callback", "callback_id", callbackID, "error", err)
	}
}

// isNotModified reports the Bot API rejecting an edit that would leave the message unchanged
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

func identity(chat *tgbotapi.Chat, from *tgbotapi.User) dialog.Identity {
	id := dialog.Identity{}
	if chat != nil {
		id.ChatID = chat.ID
	}
	if from != nil {
		id.UserID = from.ID
		id.FirstName = from.FirstName
	}
	return id
}

func keyboard(buttons [][]dialog.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, line := range buttons {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
		for _, button := range line {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Action))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
