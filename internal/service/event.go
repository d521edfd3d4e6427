package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/frame"
)

// tracked wraps emit so every frame is also recorded as a run event and
// mirrored to the conversation's watchers.
func (s *Service) tracked(ctx context.Context, run *domain.Run, emit Emitter) Emitter {
	ctx = context.WithoutCancel(ctx)
	return func(f frame.Frame) error {
		payload, err := frame.Marshal(f)
		if err != nil {
			return err
		}
		if err := s.recordEvent(ctx, run.RunID, string(f.Type()), payload); err != nil {
			s.logger.Warn("failed to record frame", "run_id", run.RunID, "type", f.Type(), "error", err)
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(run.ConversationID, payload)
		}
		if err := emit(f); err != nil {
			return &emitError{err: err}
		}
		return nil
	}
}

// recordEvent records an event to the store.
func (s *Service) recordEvent(ctx context.Context, runID, eventType string, payload []byte) error {
	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payload,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetRunEvents returns the recorded frames of a run.
func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	events, err := s.store.GetEvents(ctx, runID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run events: %w", err)
	}
	return events, nil
}

// GetMessages returns the latest messages of a conversation.
func (s *Service) GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	messages, err := s.store.GetMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}
