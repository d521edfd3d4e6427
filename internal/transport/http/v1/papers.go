package v1

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/scholar/internal/domain"
)

// SearchPapers searches arXiv.
// GET /papers/search?q=...&max_results=...&category=...
func (h *Handler) SearchPapers(c echo.Context) error {
	query := c.QueryParam("q")
	papers, err := h.service.SearchPapers(c.Request().Context(), query, queryInt(c, "max_results", 0), c.QueryParams()["category"])
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"papers":       papers,
		"papers_found": len(papers),
		"query":        query,
	})
}

// ReadPaper returns an arXiv paper's metadata and local PDF path.
// Old-style ids escape their slash, e.g. /papers/hep-th%2F9901001.
// GET /papers/:paper_id
func (h *Handler) ReadPaper(c echo.Context) error {
	id, ok := paperID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid paper id"})
	}
	content, err := h.service.ReadPaper(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, content)
}

// DownloadPaper stores an arXiv paper's PDF on the server.
// POST /papers/:paper_id/download
func (h *Handler) DownloadPaper(c echo.Context) error {
	id, ok := paperID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid paper id"})
	}
	download, err := h.service.DownloadPaper(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, download)
}

// ListDownloads lists the stored PDFs.
// GET /papers/downloads
func (h *Handler) ListDownloads(c echo.Context) error {
	downloads, err := h.service.ListDownloads()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"papers": downloads,
		"count":  len(downloads),
	})
}

func paperID(c echo.Context) (string, bool) {
	id, err := url.PathUnescape(c.Param("paper_id"))
	return id, err == nil && id != ""
}
