package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/stream"
)

// viewLog is a stream.View that keeps what a terminal would show.
type viewLog struct {
	response string
	errMsg   string
	hidden   bool
}

func (v *viewLog) ShowProgress(stream.Progress) { v.hidden = false }
func (v *viewLog) HideProgress() { v.hidden = true }
func (v *viewLog) RenderResponse(text string, _ []string) { v.response = text }
func (v *viewLog) RenderError(message string) { v.errMsg = message }
func (v *viewLog) ShowStatus(string) {}

type failingLLM struct{}

func (failingLLM) CreateChatCompletion(context.Context, *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return nil, errors.New("model offline")
}

func TestStreamProducesConsumableBody(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/agent/stream",
		`{"conversation_hash":"c1","customer_message":"Find papers on diffusion models"}`), rec)

	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, rec.Flushed)

	view := &viewLog{}
	s := stream.NewSession(view, nil)
	require.NoError(t, s.Consume(context.Background(), rec.Body))

	assert.Equal(t, stream.OutcomeSuccess, s.Outcome())
	assert.Contains(t, view.response, "[MOCK]")
	assert.True(t, view.hidden)
	assert.Zero(t, s.Dropped())
	assert.Equal(t, 9, s.Frames())

	messages, err := db.GetMessages(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestStreamFailureTravelsInBand(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, failingLLM{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/agent/stream",
		`{"conversation_hash":"c1","customer_message":"hello"}`), rec)

	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	view := &viewLog{}
	s := stream.NewSession(view, nil)
	require.NoError(t, s.Consume(context.Background(), rec.Body))

	assert.Equal(t, stream.OutcomeProducerError, s.Outcome())
	assert.Equal(t, "Error: failed to generate answer: model offline", view.errMsg)
}

func TestStreamValidationIsJSON(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/agent/stream", `{"conversation_hash":"c1"}`), rec)

	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer_message is required")
}

func TestStreamBadBody(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/agent/stream", `{`), rec)

	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvokeAndProcessStatus(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/agent",
		`{"conversation_hash":"c1","customer_message":"Compare BERT and GPT"}`), rec)
	require.NoError(t, h.Invoke(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.AgentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.IntentAnalysis, resp.Intent)
	require.NotEmpty(t, resp.ProcessID)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/agent/status/"+resp.ProcessID, nil), rec)
	c.SetPath("/agent/status/:process_id")
	c.SetParamNames("process_id")
	c.SetParamValues(resp.ProcessID)
	require.NoError(t, h.GetProcessStatus(c))

	var status domain.ProcessStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.RunStatusCompleted, status.Status)
}
