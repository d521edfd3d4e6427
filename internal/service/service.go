// Package service implements the research assistant: it classifies a
// request, plans it, consults the knowledge base, asks the model for an
// answer and reports progress as a stream of frames.
package service

import (
	"errors"
	"log/slog"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/config"
	"github.com/xiaot623/scholar/internal/policy"
	"github.com/xiaot623/scholar/internal/repository"
)

// ErrInvalidRequest is returned for requests that fail validation.
var ErrInvalidRequest = errors.New("invalid request")

// Broadcaster mirrors frame payloads to the watchers of a conversation.
type Broadcaster interface {
	Broadcast(conversationID string, data []byte)
}

type Service struct {
	store        repository.Store
	llmClient    llm.LLMClient
	papers       arxiv.ArxivClient
	policyEngine *policy.Engine
	broadcaster  Broadcaster
	config       *config.Config
	logger       *slog.Logger
}

// New wires a Service. papers, broadcaster and logger may be nil; without
// papers the pipeline only consults the local knowledge base.
func New(store repository.Store, llmClient llm.LLMClient, papers arxiv.ArxivClient, policyEngine *policy.Engine, broadcaster Broadcaster, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:        store,
		llmClient:    llmClient,
		papers:       papers,
		policyEngine: policyEngine,
		broadcaster:  broadcaster,
		config:       cfg,
		logger:       logger,
	}
}
