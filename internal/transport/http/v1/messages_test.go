package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/domain"
)

func TestConversationMessagesAndRunEvents(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t, llm.NewMockClient())
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, jsonRequest(http.MethodPost, "/agent/stream",
		`{"conversation_hash":"c9","customer_message":"hello"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conversations/c9/messages?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Messages []domain.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, msgs.Messages[0].Role)
	assert.True(t, msgs.HasMore)

	runID := msgs.Messages[0].RunID
	require.NotEmpty(t, runID)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/events?types=progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events struct {
		Events []domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events.Events, 5)

	all, err := db.GetEvents(context.Background(), runID, 0, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}

func TestRunEventsUnknownRun(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/nope/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
