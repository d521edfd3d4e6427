package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/domain"
)

// failingArxiv fails every search.
type failingArxiv struct {
	arxiv.ArxivClient
}

func (failingArxiv) SearchPapers(context.Context, arxiv.SearchQuery) ([]arxiv.Paper, error) {
	return nil, errors.New("export.arxiv.org unreachable")
}

func withMockArxiv(t *testing.T, fx *fixture, downloads int) {
	t.Helper()
	fx.svc.papers = arxiv.NewMockClient(arxiv.NewLibrary(t.TempDir()))
	fx.svc.config.ArxivDownloadCount = downloads
}

func paperMemories(t *testing.T, fx *fixture, query string) []domain.SearchResult {
	t.Helper()
	results, err := fx.store.SearchKnowledge(context.Background(), query, 20)
	require.NoError(t, err)
	var papers []domain.SearchResult
	for _, r := range results {
		if r.Kind == domain.MemoryPaper {
			papers = append(papers, r)
		}
	}
	return papers
}

func TestResearchRequestStoresArxivPapers(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{
		{content: "research"}, {content: "Here is what I found."},
		{content: "research"}, {content: "Here it is again."},
	}})
	withMockArxiv(t, fx, 2)
	ctx := context.Background()

	resp, err := fx.svc.HandleRequest(ctx, request("Find papers about graph neural networks"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentResearch, resp.Intent)
	require.Len(t, resp.ResearchData.Papers, 3)
	for _, p := range resp.ResearchData.Papers {
		assert.True(t, strings.HasPrefix(p.PaperID, "arxiv:"), p.PaperID)
		assert.Equal(t, "graph neural networks", p.Topic)
		assert.NotEmpty(t, p.URL)
	}

	assert.Len(t, paperMemories(t, fx, "graph neural"), 3)

	downloads, err := fx.svc.ListDownloads()
	require.NoError(t, err)
	assert.Len(t, downloads, 2)

	resp, err = fx.svc.HandleRequest(ctx, request("Find papers about graph neural networks"))
	require.NoError(t, err)
	assert.Len(t, resp.ResearchData.Papers, 3)
	assert.Len(t, paperMemories(t, fx, "graph neural"), 3)
}

func TestKnowledgeQueryDoesNotSearchArxiv(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{{content: "knowledge_query"}, {content: "Nothing yet."}}})
	withMockArxiv(t, fx, 0)

	resp, err := fx.svc.HandleRequest(context.Background(), request("What do we know about graph neural networks?"))
	require.NoError(t, err)
	assert.Empty(t, resp.ResearchData.Papers)
	assert.Empty(t, paperMemories(t, fx, "graph neural"))
}

func TestArxivFailureDoesNotFailRequest(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{{content: "analysis"}, {content: "Done."}}})
	fx.svc.papers = failingArxiv{}

	resp, err := fx.svc.HandleRequest(context.Background(), request("Analyze diffusion models"))
	require.NoError(t, err)
	assert.Equal(t, "Done.", resp.Response)
	assert.Empty(t, resp.ResearchData.Papers)
}

func TestPaperOperations(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.svc.SearchPapers(ctx, "attention", 0, nil)
	assert.ErrorIs(t, err, ErrPapersUnavailable)
	_, err = fx.svc.ListDownloads()
	assert.ErrorIs(t, err, ErrPapersUnavailable)

	withMockArxiv(t, fx, 0)
	_, err = fx.svc.SearchPapers(ctx, " ", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	papers, err := fx.svc.SearchPapers(ctx, "attention", 1, nil)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	d, err := fx.svc.DownloadPaper(ctx, "arxiv:"+papers[0].ID)
	require.NoError(t, err)
	content, err := fx.svc.ReadPaper(ctx, papers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, d.Path, content.PDFPath)

	_, err = fx.svc.ReadPaper(ctx, "1706.03762")
	assert.ErrorIs(t, err, arxiv.ErrPaperNotFound)
}
