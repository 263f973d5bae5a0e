package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

const serviceName = "worker"

// TokenIssuer mints bearer tokens for the gateway
type TokenIssuer interface {
	Enabled() bool
	IssueToken(service string) (string, error)
}

// Client posts notifications to the bot's messaging gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenIssuer
	logger     *logger.Logger
}

// NewClient creates a gateway client from the notifier settings; tokens may be nil
func NewClient(cfg config.NotifierConfig, tokens TokenIssuer, log *logger.Logger) ports.NotificationSender {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		tokens:     tokens,
		logger:     log.WithComponent("gateway"),
	}
}

// Send delivers message to the chat user; any status other than 200 is an error
func (c *Client) Send(ctx context.Context, telegramUserID int64, message string) error {
	if c.baseURL == "" {
		return ports.ErrNotifierDisabled
	}

	body, err := json.Marshal(ports.NotificationRequest{UserID: telegramUserID, Message: message})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send_notification", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil && c.tokens.Enabled() {
		token, err := c.tokens.IssueToken(serviceName)
		if err != nil {
			return fmt.Errorf("issue service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	c.logger.Debugw("Notification delivered", "telegram_user_id", telegramUserID)
	return nil
}
