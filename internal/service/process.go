package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/scholar/internal/domain"
)

// ProcessStatus reports the run with id processID.
func (s *Service) ProcessStatus(ctx context.Context, processID string) (*domain.ProcessStatus, error) {
	run, err := s.store.GetRun(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to get process %s: %w", processID, err)
	}
	status := toProcessStatus(*run)
	return &status, nil
}

// ActiveProcesses lists runs that have not finished.
func (s *Service) ActiveProcesses(ctx context.Context) ([]domain.ProcessStatus, error) {
	runs, err := s.store.ListActiveRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	statuses := make([]domain.ProcessStatus, 0, len(runs))
	for _, run := range runs {
		statuses = append(statuses, toProcessStatus(run))
	}
	return statuses, nil
}

func toProcessStatus(run domain.Run) domain.ProcessStatus {
	ps := domain.ProcessStatus{
		ProcessID: run.RunID,
		Status:    run.Status,
		Message:   run.Message,
		StartTime: run.StartedAt.Format(time.RFC3339),
		Error:     run.Error,
	}
	if run.EndedAt != nil {
		ps.EndTime = run.EndedAt.Format(time.RFC3339)
	}
	return ps
}
