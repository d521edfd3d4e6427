package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/scholar/internal/domain"
)

// Invoke answers a request without streaming.
// POST /agent
func (h *Handler) Invoke(c echo.Context) error {
	var req domain.AgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	resp, err := h.service.HandleRequest(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Stream answers a request with a stream of frame records.
// POST /agent/stream
func (h *Handler) Stream(c echo.Context) error {
	var req domain.AgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	w := newFrameWriter(c.Response())
	err := h.service.StreamRequest(c.Request().Context(), req, w.WriteFrame)
	if err != nil && !w.Started() {
		return h.fail(c, err)
	}
	// Once streaming, failures travel in-band as an error frame.
	return nil
}

// GetProcessStatus reports one process.
// GET /agent/status/:process_id
func (h *Handler) GetProcessStatus(c echo.Context) error {
	status, err := h.service.ProcessStatus(c.Request().Context(), c.Param("process_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// ListProcesses lists unfinished processes.
// GET /agent/processes
func (h *Handler) ListProcesses(c echo.Context) error {
	processes, err := h.service.ActiveProcesses(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"active_processes": processes,
		"count":            len(processes),
	})
}
