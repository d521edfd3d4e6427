package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/scholar/internal/domain"
)

const (
	startingMessage   = "Starting analysis..."
	processingMessage = "Processing your request..."
	completedMessage  = "Process completed successfully"
)

func validateRequest(req domain.AgentRequest) error {
	if strings.TrimSpace(req.ConversationHash) == "" {
		return fmt.Errorf("%w: conversation_hash is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.CustomerMessage) == "" {
		return fmt.Errorf("%w: customer_message is required", ErrInvalidRequest)
	}
	return nil
}

// startRun creates the conversation on first use and a run in the starting state.
func (s *Service) startRun(ctx context.Context, req domain.AgentRequest) (*domain.Run, error) {
	if _, err := s.store.GetOrCreateConversation(ctx, req.ConversationHash); err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	run := &domain.Run{
		RunID:          uuid.New().String(),
		ConversationID: req.ConversationHash,
		Status:         domain.RunStatusStarting,
		Message:        startingMessage,
		StartedAt:      time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	s.logger.Info("run started", "run_id", run.RunID, "conversation_id", run.ConversationID)
	return run, nil
}

// finishRun records the final status of a run. It uses a context detached
// from the request so a disconnected client still leaves a final status.
func (s *Service) finishRun(ctx context.Context, run *domain.Run, cause error) {
	ctx = context.WithoutCancel(ctx)
	status, message, errMsg := domain.RunStatusCompleted, completedMessage, ""
	if cause != nil {
		status, message, errMsg = domain.RunStatusError, "Error: "+cause.Error(), cause.Error()
	}
	if err := s.store.CompleteRun(ctx, run.RunID, status, message, errMsg); err != nil {
		s.logger.Error("failed to complete run", "run_id", run.RunID, "error", err)
		return
	}
	s.logger.Info("run finished", "run_id", run.RunID, "status", status)
}

// HandleRequest answers req without streaming.
func (s *Service) HandleRequest(ctx context.Context, req domain.AgentRequest) (*domain.AgentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	run, err := s.startRun(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateRunStatus(ctx, run.RunID, domain.RunStatusProcessing, processingMessage); err != nil {
		s.finishRun(ctx, run, err)
		return nil, fmt.Errorf("failed to update run: %w", err)
	}

	resp, err := s.process(ctx, run, req, noSteps)
	s.finishRun(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) withRequestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}
