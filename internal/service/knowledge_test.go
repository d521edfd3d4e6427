package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/repository"
)

func TestKnowledgeRoundTrip(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	ctx := context.Background()

	paper, err := fx.svc.AddPaper(ctx, domain.AddPaperRequest{Title: "Attention Is All You Need", Topic: "transformers"})
	require.NoError(t, err)
	assert.NotEmpty(t, paper.PaperID)

	_, err = fx.svc.AddInsight(ctx, domain.AddInsightRequest{Topic: "transformers", Content: "Attention is quadratic.", Confidence: 0.8})
	require.NoError(t, err)

	results, err := fx.svc.SearchKnowledge(ctx, domain.SearchRequest{Query: "attention"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	summary, err := fx.svc.KnowledgeSummary(ctx, "transformers")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PaperCount)
	assert.Equal(t, 1, summary.InsightCount)

	memories, err := fx.svc.ListMemories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	require.NoError(t, fx.svc.DeleteMemory(ctx, memories[0].MemoryID))
	assert.ErrorIs(t, fx.svc.DeleteMemory(ctx, memories[0].MemoryID), repository.ErrNotFound)
}

func TestKnowledgeValidation(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	ctx := context.Background()

	_, err := fx.svc.SearchKnowledge(ctx, domain.SearchRequest{Query: " "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = fx.svc.AddPaper(ctx, domain.AddPaperRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = fx.svc.AddInsight(ctx, domain.AddInsightRequest{Topic: "t", Content: "c", Confidence: 1.5})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
