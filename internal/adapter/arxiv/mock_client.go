package arxiv

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const mockIDPrefix = "2401.0"

// mockPDF is the body written for mock downloads.
var mockPDF = []byte("%PDF-1.4\n% mock paper\n%%EOF\n")

// MockClient answers from a generated catalogue. Every query yields papers
// whose titles and abstracts repeat the query terms, so results land in the
// knowledge base under searchable text.
type MockClient struct {
	library *Library
}

// NewMockClient creates a mock client storing downloads in library. library
// may be nil.
func NewMockClient(library *Library) *MockClient {
	return &MockClient{library: library}
}

// SearchPapers returns up to three papers about q.
func (m *MockClient) SearchPapers(ctx context.Context, q SearchQuery) ([]Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject := strings.Join(Terms(strings.ReplaceAll(q.Query, "all:", "")), " ")
	if subject == "" {
		return nil, fmt.Errorf("search query is required")
	}

	n := min(maxResults(q.MaxResults), 3)
	papers := make([]Paper, n)
	for i := range papers {
		papers[i] = mockPaper(fmt.Sprintf("%s%04d", mockIDPrefix, i+1), subject)
	}
	return papers, nil
}

// GetPaper knows every id the mock search hands out.
func (m *MockClient) GetPaper(ctx context.Context, id string) (*Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if !strings.HasPrefix(id, mockIDPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	p := mockPaper(id, "mock research")
	return &p, nil
}

// DownloadPaper writes a placeholder PDF.
func (m *MockClient) DownloadPaper(ctx context.Context, id string) (*Download, error) {
	if !m.library.Enabled() {
		return nil, ErrDownloadsDisabled
	}
	if _, err := m.GetPaper(ctx, id); err != nil {
		return nil, err
	}
	return m.library.Save(id, strings.NewReader(string(mockPDF)))
}

// ReadPaper returns the mock metadata and the local PDF path if stored.
func (m *MockClient) ReadPaper(ctx context.Context, id string) (*PaperContent, error) {
	return readPaper(ctx, m, m.library, id)
}

// ListDownloads lists the library.
func (m *MockClient) ListDownloads() ([]Download, error) {
	return m.library.List()
}

func mockPaper(id, subject string) Paper {
	return Paper{
		ID:         id,
		Title:      fmt.Sprintf("[MOCK] Advances in %s", subject),
		Authors:    []string{"A. Mock", "B. Placeholder"},
		Abstract:   fmt.Sprintf("[MOCK] This paper surveys recent work on %s.", subject),
		Categories: []string{"cs.AI"},
		Published:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		PDFURL:     "http://arxiv.org/pdf/" + id,
		EntryURL:   "http://arxiv.org/abs/" + id,
	}
}
