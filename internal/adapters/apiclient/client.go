package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

const serviceName = "bot"

// Outcome classifies how an API call ended
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeInvalid
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "transport"
	}
}

// Result carries either a decoded value or the reason the call failed
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Message string
	Err     error
}

func (r Result[T]) OK() bool {
	return r.Outcome == OutcomeOK
}

// TokenIssuer mints bearer tokens for outgoing calls
type TokenIssuer interface {
	Enabled() bool
	IssueToken(service string) (string, error)
}

// Client calls the task API on behalf of the chat bot
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenIssuer
	logger     *logger.Logger
}

// New creates an API client; tokens may be nil when the API is open
func New(baseURL string, timeout time.Duration, tokens TokenIssuer, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     log.WithComponent("apiclient"),
	}
}

// ListTelegramTasks returns the first page of a chat user's tasks
func (c *Client) ListTelegramTasks(ctx context.Context, telegramUserID int64, limit int) Result[[]entities.Task] {
	query := url.Values{}
	query.Set("telegram_user_id", strconv.FormatInt(telegramUserID, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	page := call[ports.PaginatedResponse[entities.Task]](ctx, c, http.MethodGet, "/tasks/by_telegram_user/", query, nil)
	return Result[[]entities.Task]{
		Value:   page.Value.Data,
		Outcome: page.Outcome,
		Message: page.Message,
		Err:     page.Err,
	}
}

// GetTask fetches one task
func (c *Client) GetTask(ctx context.Context, id string) Result[entities.Task] {
	return call[entities.Task](ctx, c, http.MethodGet, "/tasks/"+url.PathEscape(id)+"/", nil, nil)
}

// CreateTelegramTask creates a task owned by the chat user
func (c *Client) CreateTelegramTask(ctx context.Context, req ports.TelegramTaskRequest) Result[entities.Task] {
	return call[entities.Task](ctx, c, http.MethodPost, "/tasks/create_for_telegram/", nil, req)
}

// MarkCompleted completes one task
func (c *Client) MarkCompleted(ctx context.Context, id string) Result[entities.Task] {
	return call[entities.Task](ctx, c, http.MethodPatch, "/tasks/"+url.PathEscape(id)+"/mark_completed/", nil, nil)
}

// Stats returns a chat user's task counts
func (c *Client) Stats(ctx context.Context, telegramUserID int64) Result[entities.TaskStats] {
	query := url.Values{}
	query.Set("telegram_user_id", strconv.FormatInt(telegramUserID, 10))
	return call[entities.TaskStats](ctx, c, http.MethodGet, "/tasks/stats/", query, nil)
}

// ListCategories returns every category
func (c *Client) ListCategories(ctx context.Context) Result[[]entities.Category] {
	return call[[]entities.Category](ctx, c, http.MethodGet, "/categories/", nil, nil)
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) Result[T] {
	var result Result[T]

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return failed(c, result, method, path, OutcomeTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failed(c, result, method, path, OutcomeTransport, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(c, result, method, path, OutcomeTransport, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(payload, &result.Value); err != nil {
			return failed(c, result, method, path, OutcomeTransport, fmt.Errorf("decode response: %w", err))
		}
		result.Outcome = OutcomeOK
		return result
	case resp.StatusCode == http.StatusNotFound:
		result.Message = errorMessage(payload)
		return failed(c, result, method, path, OutcomeNotFound, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		result.Message = errorMessage(payload)
		return failed(c, result, method, path, OutcomeInvalid, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return failed(c, result, method, path, OutcomeTransport, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil && c.tokens.Enabled() {
		token, err := c.tokens.IssueToken(serviceName)
		if err != nil {
			return nil, fmt.Errorf("issue service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// failed records the outcome on result and logs it; every failed call is logged here
func failed[T any](c *Client, result Result[T], method, path string, outcome Outcome, err error) Result[T] {
	result.Outcome = outcome
	result.Err = err

	fields := []interface{}{
		"method", method,
		"path", path,
		"outcome", outcome.String(),
		"error", err,
	}
	if result.Message != "" {
		fields = append(fields, "message", result.Message)
	}

	if outcome == OutcomeTransport {
		c.logger.Errorw("API call failed", fields...)
	} else {
		c.logger.Warnw("API call rejected", fields...)
	}

	return result
}

func errorMessage(payload []byte) string {
	var body ports.ErrorResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Message
}
