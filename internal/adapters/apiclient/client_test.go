package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todobot/core/internal/domain/entities"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

type staticTokens struct{ token string }

func (s staticTokens) Enabled() bool { return s.token != "" }
func (s staticTokens) IssueToken(string) (string, error) { return s.token, nil }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenIssuer) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", time.Second, tokens, logger.NewNop())
}

func TestCreateTelegramTaskSendsBodyAndToken(t *testing.T) {
	var got ports.TelegramTaskRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tasks/create_for_telegram/", r.URL.Path)
		assert.Equal(t, "Bearer signed", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abcdefghijkl","title":"Buy milk","status":"pending","priority":"high","is_overdue":false}`))
	}, staticTokens{token: "signed"})

	high := entities.PriorityHigh
	result := client.CreateTelegramTask(context.Background(), ports.TelegramTaskRequest{
		TelegramUserID: 42,
		Title:          "Buy milk",
		Priority:       &high,
	})

	require.True(t, result.OK())
	assert.Equal(t, "abcdefghijkl", result.Value.ID)
	assert.Equal(t, int64(42), got.TelegramUserID)
	assert.Nil(t, got.CategoryID)
}

func TestGetTaskNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"task not found"}`))
	}, nil)

	result := client.GetTask(context.Background(), "missing00000")
	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Equal(t, "task not found", result.Message)
	assert.False(t, result.OK())
}

func TestValidationFailureIsInvalid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Validation failed","details":{"title":"required"}}`))
	}, nil)

	result := client.CreateTelegramTask(context.Background(), ports.TelegramTaskRequest{TelegramUserID: 1})
	assert.Equal(t, OutcomeInvalid, result.Outcome)
	assert.Equal(t, "Validation failed", result.Message)
}

func TestServerErrorIsTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	result := client.Stats(context.Background(), 1)
	assert.Equal(t, OutcomeTransport, result.Outcome)
	assert.Error(t, result.Err)
}

func TestUnreachableAPIIsTransport(t *testing.T) {
	client := New("http://127.0.0.1:1/api", 200*time.Millisecond, nil, logger.NewNop())

	result := client.ListCategories(context.Background())
	assert.Equal(t, OutcomeTransport, result.Outcome)
	assert.Nil(t, result.Value)
}

func TestTimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	defer close(release)
	client.httpClient.Timeout = 50 * time.Millisecond

	result := client.MarkCompleted(context.Background(), "abcdefghijkl")
	assert.Equal(t, OutcomeTransport, result.Outcome)
}

func TestListTelegramTasksUnwrapsPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/by_telegram_user/", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("telegram_user_id"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[{"id":"a","title":"One","status":"pending"},{"id":"b","title":"Two","status":"completed"}],"total":2,"limit":10,"offset":0}`))
	}, nil)

	result := client.ListTelegramTasks(context.Background(), 42, 10)
	require.True(t, result.OK())
	require.Len(t, result.Value, 2)
	assert.Equal(t, entities.TaskStatusCompleted, result.Value[1].Status)
}

func TestMalformedBodyIsTransport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("{", 3)))
	}, nil)

	result := client.ListCategories(context.Background())
	assert.Equal(t, OutcomeTransport, result.Outcome)
}
