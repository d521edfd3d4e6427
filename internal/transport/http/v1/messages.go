package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// GetConversationMessages retrieves the latest messages of a conversation.
// GET /v1/conversations/:conversation_id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	limit := queryInt(c, "limit", 50)

	messages, err := h.service.GetMessages(c.Request().Context(), c.Param("conversation_id"), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": limit > 0 && len(messages) == limit,
	})
}

// GetRunEvents retrieves the recorded frames of a run.
// GET /v1/runs/:run_id/events?after_ts=&types=status,progress&limit=
func (h *Handler) GetRunEvents(c echo.Context) error {
	afterTs := int64(0)
	if t := c.QueryParam("after_ts"); t != "" {
		if val, err := strconv.ParseInt(t, 10, 64); err == nil {
			afterTs = val
		}
	}
	var types []string
	if t := c.QueryParam("types"); t != "" {
		types = strings.Split(t, ",")
	}

	events, err := h.service.GetRunEvents(c.Request().Context(), c.Param("run_id"), afterTs, types, queryInt(c, "limit", 100))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}
