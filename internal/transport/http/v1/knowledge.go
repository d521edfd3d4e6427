package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/scholar/internal/domain"
)

// SearchKnowledge searches the knowledge base.
// POST /knowledge/search
func (h *Handler) SearchKnowledge(c echo.Context) error {
	var req domain.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	results, err := h.service.SearchKnowledge(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results":       results,
		"total_results": len(results),
		"query":         req.Query,
	})
}

// AddPaper stores a paper.
// POST /knowledge/papers
func (h *Handler) AddPaper(c echo.Context) error {
	var req domain.AddPaperRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	paper, err := h.service.AddPaper(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, paper)
}

// AddInsight stores an insight.
// POST /knowledge/insights
func (h *Handler) AddInsight(c echo.Context) error {
	var req domain.AddInsightRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	insight, err := h.service.AddInsight(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, insight)
}

// GET /knowledge/papers/:topic
func (h *Handler) GetRelatedPapers(c echo.Context) error {
	topic := c.Param("topic")
	papers, err := h.service.RelatedPapers(c.Request().Context(), topic, queryInt(c, "limit", 5))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"papers":       papers,
		"total_papers": len(papers),
		"topic":        topic,
	})
}

// GET /knowledge/insights/:topic
func (h *Handler) GetResearchInsights(c echo.Context) error {
	topic := c.Param("topic")
	insights, err := h.service.ResearchInsights(c.Request().Context(), topic, queryInt(c, "limit", 10))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"insights":       insights,
		"total_insights": len(insights),
		"topic":          topic,
	})
}

// GET /knowledge/summary/:topic
func (h *Handler) GetKnowledgeSummary(c echo.Context) error {
	summary, err := h.service.KnowledgeSummary(c.Request().Context(), c.Param("topic"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GET /knowledge/memories
func (h *Handler) ListMemories(c echo.Context) error {
	memories, err := h.service.ListMemories(c.Request().Context(), queryInt(c, "limit", 50))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"memories":       memories,
		"total_memories": len(memories),
	})
}

// DELETE /knowledge/memory/:memory_id
func (h *Handler) DeleteMemory(c echo.Context) error {
	memoryID := c.Param("memory_id")
	if err := h.service.DeleteMemory(c.Request().Context(), memoryID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Memory " + memoryID + " deleted successfully",
	})
}
