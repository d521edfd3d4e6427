package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), DefaultPolicy)
	require.NoError(t, err)
	return e
}

func TestEnginePlanPerIntent(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		intent domain.Intent
		want   []string
	}{
		{domain.IntentResearch, []string{"Extract research topic", "Search for papers", "Analyze findings", "Synthesize results"}},
		{domain.IntentAnalysis, []string{"Identify target papers", "Retrieve content", "Analyze content", "Present insights"}},
		{domain.IntentKnowledgeQuery, []string{"Search knowledge base", "Retrieve information", "Formulate response"}},
		{domain.IntentGeneral, []string{"Process request", "Generate response"}},
		{"something_else", []string{"Process request", "Generate response"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			got, err := e.Plan(context.Background(), tt.intent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngineAllowWrite(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	allowed, err := e.AllowWrite(ctx, WriteInput{Intent: domain.IntentResearch, ResponseLength: 200})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = e.AllowWrite(ctx, WriteInput{Intent: domain.IntentResearch, ResponseLength: 10})
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = e.AllowWrite(ctx, WriteInput{Intent: domain.IntentGeneral, ResponseLength: 500})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package scholar\nplan = {")
	assert.Error(t, err)
}
