package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/config"
	"github.com/xiaot623/scholar/internal/policy"
	"github.com/xiaot623/scholar/internal/repository"
	"github.com/xiaot623/scholar/internal/service"
	"github.com/xiaot623/scholar/internal/testutil"
)

func newTestHandler(t *testing.T, client llm.LLMClient) (*Handler, repository.Store) {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	db := testutil.NewTestSQLiteStore(t)
	cfg := &config.Config{LLMModel: "test", HistoryLimit: 10}
	svc := service.New(db, client, arxiv.NewMockClient(arxiv.NewLibrary(t.TempDir())), engine, nil, cfg, nil)
	return NewHandler(svc, nil), db
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	require.NoError(t, h.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/processes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active_processes":[],"count":0}`, rec.Body.String())
}

func TestUnknownProcessIsNotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockClient())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/agent/status/nope", nil), rec)
	c.SetPath("/agent/status/:process_id")
	c.SetParamNames("process_id")
	c.SetParamValues("nope")

	require.NoError(t, h.GetProcessStatus(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.Contains(body["error"], "not found"))
}
