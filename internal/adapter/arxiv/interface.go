// Package arxiv searches the arXiv catalogue and keeps downloaded PDFs in a
// local library.
package arxiv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPaperNotFound is returned when arXiv has no entry for an id.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrDownloadsDisabled is returned when no storage directory is configured.
	ErrDownloadsDisabled = errors.New("paper downloads disabled")
	// ErrInvalidID is returned for ids that cannot name an arXiv paper.
	ErrInvalidID = errors.New("invalid paper id")
)

// ArxivClient defines the catalogue operations the researcher needs.
type ArxivClient interface {
	// SearchPapers returns the best matches for q, most relevant first.
	SearchPapers(ctx context.Context, q SearchQuery) ([]Paper, error)
	// GetPaper looks up a single paper by id.
	GetPaper(ctx context.Context, id string) (*Paper, error)
	// DownloadPaper stores the PDF of a paper in the library.
	DownloadPaper(ctx context.Context, id string) (*Download, error)
	// ReadPaper returns a paper's metadata and, when downloaded, its PDF path.
	ReadPaper(ctx context.Context, id string) (*PaperContent, error)
	// ListDownloads lists the PDFs in the library.
	ListDownloads() ([]Download, error)
}

var (
	_ ArxivClient = (*Client)(nil)
	_ ArxivClient = (*MockClient)(nil)
)

// SearchQuery is a catalogue search. Categories restrict results to any of
// the named arXiv categories, e.g. "cs.CL".
type SearchQuery struct {
	Query      string
	MaxResults int
	Categories []string
}

// Paper is one catalogue entry.
type Paper struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	Abstract   string    `json:"abstract"`
	Categories []string  `json:"categories,omitempty"`
	Published  time.Time `json:"published"`
	PDFURL     string    `json:"pdf_url,omitempty"`
	EntryURL   string    `json:"entry_url,omitempty"`
}

// PaperContent is what is known about a paper locally.
type PaperContent struct {
	Paper
	Content string `json:"content"`
	PDFPath string `json:"pdf_path,omitempty"`
}

// Download is a PDF stored in the library.
type Download struct {
	PaperID  string `json:"paper_id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

const defaultMaxResults = 10

func maxResults(n int) int {
	if n <= 0 {
		return defaultMaxResults
	}
	return n
}

// readPaper joins catalogue metadata with the local library.
func readPaper(ctx context.Context, c ArxivClient, lib *Library, id string) (*PaperContent, error) {
	paper, err := c.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	content := &PaperContent{
		Paper:   *paper,
		Content: "Abstract: " + paper.Abstract,
	}
	if path, ok := lib.Lookup(id); ok {
		content.PDFPath = path
	}
	return content, nil
}
