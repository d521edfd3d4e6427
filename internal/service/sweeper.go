package service

import (
	"context"
	"time"

	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/frame"
)

const (
	staleRunInterval = 30 * time.Second
	staleRunGrace    = time.Minute
	abandonedCause   = "run abandoned before completion"
)

// RunStaleRunMonitor periodically closes runs that stayed active past the
// request timeout, such as runs left behind by a restart. Without a request
// timeout runs may legitimately take any time, so nothing is swept.
func (s *Service) RunStaleRunMonitor(ctx context.Context) {
	if s.config.RequestTimeout <= 0 {
		s.logger.Info("request timeout disabled, stale run sweep off")
		return
	}
	s.sweepStaleRuns(ctx, time.Now())

	ticker := time.NewTicker(staleRunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepStaleRuns(ctx, now)
		}
	}
}

func (s *Service) sweepStaleRuns(ctx context.Context, now time.Time) int {
	if s.config.RequestTimeout <= 0 {
		return 0
	}
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	runs, err := s.store.ListActiveRuns(sweepCtx)
	if err != nil {
		s.logger.Warn("stale run sweep failed", "error", err)
		return 0
	}

	cutoff := now.Add(-(s.config.RequestTimeout + staleRunGrace))
	swept := 0
	for _, run := range runs {
		if run.StartedAt.After(cutoff) {
			continue
		}
		if err := s.store.CompleteRun(sweepCtx, run.RunID, domain.RunStatusError, "Error: "+abandonedCause, abandonedCause); err != nil {
			s.logger.Warn("failed to close stale run", "run_id", run.RunID, "error", err)
			continue
		}
		swept++

		payload, err := frame.Marshal(frame.Error{Message: "Error: " + abandonedCause})
		if err != nil {
			continue
		}
		if err := s.recordEvent(sweepCtx, run.RunID, string(frame.TypeError), payload); err != nil {
			s.logger.Warn("failed to record stale run event", "run_id", run.RunID, "error", err)
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(run.ConversationID, payload)
		}
	}
	if swept > 0 {
		s.logger.Info("closed stale runs", "count", swept)
	}
	return swept
}
