package service

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/frame"
)

// Emitter receives each frame of a streamed request in order. A non-nil
// error stops the stream.
type Emitter func(frame.Frame) error

// emitError marks a failure to deliver a frame to the caller.
type emitError struct{ err error }

func (e *emitError) Error() string { return "emit frame: " + e.err.Error() }
func (e *emitError) Unwrap() error { return e.err }

// StreamRequest processes req and emits, in order: two status frames,
// progress steps 1 to 5, the response and a complete frame. A failure after
// the run started emits a single error frame instead of the remainder.
// Validation errors are returned before any frame is emitted.
func (s *Service) StreamRequest(ctx context.Context, req domain.AgentRequest, emit Emitter) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	runCtx, cancel := s.withRequestTimeout(ctx)
	defer cancel()

	run, err := s.startRun(runCtx, req)
	if err != nil {
		return err
	}
	out := s.tracked(runCtx, run, emit)

	err = s.streamRun(runCtx, run, req, out)
	s.finishRun(runCtx, run, err)
	if err == nil {
		return nil
	}

	var ee *emitError
	if errors.As(err, &ee) || ctx.Err() != nil {
		s.logger.Warn("stream abandoned", "run_id", run.RunID, "error", err)
		return err
	}
	s.logger.Error("stream failed", "run_id", run.RunID, "error", err)
	if emitErr := out(frame.Error{Message: "Error: " + err.Error(), ProcessID: run.RunID}); emitErr != nil {
		s.logger.Warn("failed to emit error frame", "run_id", run.RunID, "error", emitErr)
	}
	return err
}

func (s *Service) streamRun(ctx context.Context, run *domain.Run, req domain.AgentRequest, out Emitter) error {
	if err := out(frame.Status{Message: startingMessage, ProcessID: run.RunID}); err != nil {
		return err
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	if err := s.store.UpdateRunStatus(ctx, run.RunID, domain.RunStatusProcessing, processingMessage); err != nil {
		return err
	}
	if err := out(frame.Status{Message: processingMessage, ProcessID: run.RunID}); err != nil {
		return err
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	step := func(n int, message string) error {
		if err := out(frame.Progress{Message: message, Step: n, TotalSteps: frame.DefaultTotalSteps}); err != nil {
			return err
		}
		if err := s.store.UpdateRunStatus(ctx, run.RunID, domain.RunStatusProcessing, message); err != nil {
			return err
		}
		return s.pause(ctx)
	}

	resp, err := s.process(ctx, run, req, step)
	if err != nil {
		return err
	}

	if err := out(frame.Response{Response: resp.Response, Intent: string(resp.Intent), Plan: resp.Plan}); err != nil {
		return err
	}
	return out(frame.Complete{Message: completedMessage, ProcessID: run.RunID})
}

// pause waits StepDelay between frames so watchers can follow along.
func (s *Service) pause(ctx context.Context) error {
	if s.config.StepDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.config.StepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
