package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/scholar/internal/domain"
)

const defaultKnowledgeLimit = 10

func knowledgeLimit(limit int) int {
	if limit <= 0 {
		return defaultKnowledgeLimit
	}
	return limit
}

// SearchKnowledge runs a term search over the knowledge base.
func (s *Service) SearchKnowledge(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	results, err := s.store.SearchKnowledge(ctx, req.Query, knowledgeLimit(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	return results, nil
}

// AddPaper stores a paper.
func (s *Service) AddPaper(ctx context.Context, req domain.AddPaperRequest) (*domain.Paper, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: title and topic are required", ErrInvalidRequest)
	}
	paper := &domain.Paper{
		Title:    req.Title,
		Authors:  req.Authors,
		Abstract: req.Abstract,
		URL:      req.URL,
		Topic:    req.Topic,
	}
	if err := s.store.AddPaper(ctx, paper); err != nil {
		return nil, fmt.Errorf("failed to add paper: %w", err)
	}
	return paper, nil
}

// AddInsight stores an insight. Confidence must lie in [0, 1].
func (s *Service) AddInsight(ctx context.Context, req domain.AddInsightRequest) (*domain.Insight, error) {
	if strings.TrimSpace(req.Topic) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: topic and content are required", ErrInvalidRequest)
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRequest)
	}
	insight := &domain.Insight{
		Topic:      req.Topic,
		Content:    req.Content,
		Source:     req.Source,
		Confidence: req.Confidence,
	}
	if err := s.store.AddInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("failed to add insight: %w", err)
	}
	return insight, nil
}

func (s *Service) RelatedPapers(ctx context.Context, topic string, limit int) ([]domain.Paper, error) {
	papers, err := s.store.RelatedPapers(ctx, topic, knowledgeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get related papers: %w", err)
	}
	return papers, nil
}

func (s *Service) ResearchInsights(ctx context.Context, topic string, limit int) ([]domain.Insight, error) {
	insights, err := s.store.ResearchInsights(ctx, topic, knowledgeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get insights: %w", err)
	}
	return insights, nil
}

func (s *Service) KnowledgeSummary(ctx context.Context, topic string) (*domain.KnowledgeSummary, error) {
	summary, err := s.store.KnowledgeSummary(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize knowledge: %w", err)
	}
	return summary, nil
}

func (s *Service) ListMemories(ctx context.Context, limit int) ([]domain.Memory, error) {
	memories, err := s.store.ListMemories(ctx, knowledgeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	return memories, nil
}

func (s *Service) DeleteMemory(ctx context.Context, memoryID string) error {
	if err := s.store.DeleteMemory(ctx, memoryID); err != nil {
		return fmt.Errorf("failed to delete memory %s: %w", memoryID, err)
	}
	return nil
}
