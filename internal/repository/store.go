// Package repository persists conversations, runs, frame events and the
// knowledge base.
package repository

import (
	"context"
	"errors"

	"github.com/xiaot623/scholar/internal/domain"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations used by the service.
type Store interface {
	GetOrCreateConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, message string) error
	SetRunIntent(ctx context.Context, runID string, intent domain.Intent) error
	CompleteRun(ctx context.Context, runID string, status domain.RunStatus, message, errMsg string) error
	ListActiveRuns(ctx context.Context) ([]domain.Run, error)

	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	AddPaper(ctx context.Context, paper *domain.Paper) error
	AddInsight(ctx context.Context, insight *domain.Insight) error
	SearchKnowledge(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	RelatedPapers(ctx context.Context, topic string, limit int) ([]domain.Paper, error)
	ResearchInsights(ctx context.Context, topic string, limit int) ([]domain.Insight, error)
	KnowledgeSummary(ctx context.Context, topic string) (*domain.KnowledgeSummary, error)
	ListMemories(ctx context.Context, limit int) ([]domain.Memory, error)
	DeleteMemory(ctx context.Context, memoryID string) error

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
