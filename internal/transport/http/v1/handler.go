// Package v1 provides the HTTP handlers.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/repository"
	"github.com/xiaot623/scholar/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/agent", h.Invoke)
	e.POST("/agent/stream", h.Stream)
	e.GET("/agent/status/:process_id", h.GetProcessStatus)
	e.GET("/agent/processes", h.ListProcesses)

	e.POST("/knowledge/search", h.SearchKnowledge)
	e.POST("/knowledge/papers", h.AddPaper)
	e.POST("/knowledge/insights", h.AddInsight)
	e.GET("/knowledge/papers/:topic", h.GetRelatedPapers)
	e.GET("/knowledge/insights/:topic", h.GetResearchInsights)
	e.GET("/knowledge/summary/:topic", h.GetKnowledgeSummary)
	e.GET("/knowledge/memories", h.ListMemories)
	e.DELETE("/knowledge/memory/:memory_id", h.DeleteMemory)

	e.GET("/papers/search", h.SearchPapers)
	e.GET("/papers/downloads", h.ListDownloads)
	e.GET("/papers/:paper_id", h.ReadPaper)
	e.POST("/papers/:paper_id/download", h.DownloadPaper)

	e.GET("/v1/conversations/:conversation_id/messages", h.GetConversationMessages)
	e.GET("/v1/runs/:run_id/events", h.GetRunEvents)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// fail writes err as a JSON error body with a status derived from its kind.
func (h *Handler) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, arxiv.ErrInvalidID):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, arxiv.ErrPaperNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrPapersUnavailable), errors.Is(err, arxiv.ErrDownloadsDisabled):
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, domain.ErrorResponse{Error: err.Error()})
}

func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
