package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/domain"
)

// ErrPapersUnavailable is returned by paper operations when no arXiv client
// is configured.
var ErrPapersUnavailable = errors.New("paper search unavailable")

const arxivIDPrefix = "arxiv:"

// fetchPapers searches arXiv for message, stores every hit as a paper and
// downloads the best few. Failures are logged; the request goes on with
// whatever was fetched.
func (s *Service) fetchPapers(ctx context.Context, message string, results []domain.SearchResult) []domain.Paper {
	if s.papers == nil {
		return nil
	}
	query := arxiv.BuildQuery(message)
	if query == "" {
		return nil
	}
	found, err := s.papers.SearchPapers(ctx, arxiv.SearchQuery{Query: query, MaxResults: s.config.ArxivMaxResults})
	if err != nil {
		s.logger.Warn("arxiv search failed", "query", query, "error", err)
		return nil
	}

	topic := strings.Join(arxiv.Terms(message), " ")
	if len(results) > 0 {
		topic = results[0].Topic
	}
	papers := make([]domain.Paper, 0, len(found))
	for i, p := range found {
		paper := domain.Paper{
			PaperID:  arxivIDPrefix + p.ID,
			Title:    p.Title,
			Authors:  p.Authors,
			Abstract: p.Abstract,
			URL:      p.EntryURL,
			Topic:    topic,
		}
		if err := s.store.AddPaper(ctx, &paper); err != nil {
			s.logger.Warn("failed to store paper", "paper_id", paper.PaperID, "error", err)
			continue
		}
		papers = append(papers, paper)

		if i >= s.config.ArxivDownloadCount {
			continue
		}
		if _, err := s.papers.DownloadPaper(ctx, p.ID); err != nil && !errors.Is(err, arxiv.ErrDownloadsDisabled) {
			s.logger.Warn("failed to download paper", "arxiv_id", p.ID, "error", err)
		}
	}
	s.logger.Debug("arxiv papers fetched", "query", query, "found", len(found), "stored", len(papers))
	return papers
}

// SearchPapers queries arXiv directly without touching the knowledge base.
func (s *Service) SearchPapers(ctx context.Context, query string, maxResults int, categories []string) ([]arxiv.Paper, error) {
	if s.papers == nil {
		return nil, ErrPapersUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if maxResults <= 0 {
		maxResults = s.config.ArxivMaxResults
	}
	papers, err := s.papers.SearchPapers(ctx, arxiv.SearchQuery{Query: query, MaxResults: maxResults, Categories: categories})
	if err != nil {
		return nil, fmt.Errorf("failed to search arxiv: %w", err)
	}
	return papers, nil
}

// ReadPaper returns what is known about an arXiv paper.
func (s *Service) ReadPaper(ctx context.Context, id string) (*arxiv.PaperContent, error) {
	if s.papers == nil {
		return nil, ErrPapersUnavailable
	}
	return s.papers.ReadPaper(ctx, strings.TrimPrefix(id, arxivIDPrefix))
}

// DownloadPaper stores the PDF of an arXiv paper locally.
func (s *Service) DownloadPaper(ctx context.Context, id string) (*arxiv.Download, error) {
	if s.papers == nil {
		return nil, ErrPapersUnavailable
	}
	return s.papers.DownloadPaper(ctx, strings.TrimPrefix(id, arxivIDPrefix))
}

// ListDownloads lists the locally stored PDFs.
func (s *Service) ListDownloads() ([]arxiv.Download, error) {
	if s.papers == nil {
		return nil, ErrPapersUnavailable
	}
	return s.papers.ListDownloads()
}
