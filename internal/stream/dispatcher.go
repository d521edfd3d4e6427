package stream

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/xiaot623/scholar/internal/frame"
)

// State is the lifecycle position of a session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateTerminal:
		return "terminal"
	}
	return "unknown"
}

// Outcome records how a session reached its terminal state.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeSuccess: a response frame was rendered.
	OutcomeSuccess
	// OutcomeImplicit: the stream closed without a terminal frame.
	OutcomeImplicit
	// OutcomeProducerError: the producer sent an error frame.
	OutcomeProducerError
	// OutcomeTransportFailure: the connection failed.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSuccess:
		return "success"
	case OutcomeImplicit:
		return "implicit"
	case OutcomeProducerError:
		return "producer_error"
	case OutcomeTransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

// User-visible texts produced by the dispatcher itself.
const (
	StartingMessage         = "Processing your request..."
	EmptyResponseMessage    = "Received an empty response from the assistant."
	TransportFailureMessage = "Sorry, something went wrong while contacting the assistant."
	CompletedStatus         = "Completed."
)

// Dispatcher applies decoded frames to one session's state and forwards the
// resulting effects to a View. It is driven from a single goroutine.
type Dispatcher struct {
	view     View
	logger   *slog.Logger
	state    State
	outcome  Outcome
	progress Progress
	showing  bool
	err      error
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher(view View, logger *slog.Logger) *Dispatcher {
	if view == nil {
		view = NopView{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{view: view, logger: logger}
}

// Begin moves an idle session to active and shows the indicator at step 0.
func (d *Dispatcher) Begin() {
	if d.state != StateIdle {
		return
	}
	d.state = StateActive
	d.setProgress(Progress{Step: 0, TotalSteps: frame.DefaultTotalSteps, Message: StartingMessage})
}

// Apply handles one frame.
func (d *Dispatcher) Apply(f frame.Frame) {
	if d.state == StateIdle {
		d.Begin()
	}

	if c, ok := f.(frame.Complete); ok {
		d.logger.Debug("stream complete", "message", c.Message, "process_id", c.ProcessID)
		return
	}
	if d.state == StateTerminal {
		d.logger.Info("ignoring frame after terminal state", "type", f.Type())
		return
	}

	switch v := f.(type) {
	case frame.Status:
		d.setProgress(Progress{Step: 1, TotalSteps: frame.DefaultTotalSteps, Message: v.Message})
	case frame.Progress:
		d.setProgress(Progress{Step: v.Step, TotalSteps: v.TotalSteps, Message: v.Message})
	case frame.Response:
		d.terminate(OutcomeSuccess)
		if strings.TrimSpace(v.Response) == "" {
			d.err = ErrEmptyResponse
			d.logger.Warn("response frame has no content")
			d.view.RenderError(EmptyResponseMessage)
			return
		}
		d.view.RenderResponse(v.Response, ResponseMeta(v))
	case frame.Error:
		d.terminate(OutcomeProducerError)
		d.err = &ProducerError{Message: v.Message}
		d.view.RenderError(v.Message)
	case frame.Unknown:
		d.logger.Info("ignoring unknown frame type", "type", v.Kind)
	default:
		d.logger.Info("ignoring unsupported frame", "type", f.Type())
	}
}

// End handles the transport closing. Without a prior terminal frame the
// session completes implicitly.
func (d *Dispatcher) End() {
	if d.state == StateTerminal {
		return
	}
	d.logger.Warn("stream ended without a terminal frame", "last_step", d.progress.Step)
	d.terminate(OutcomeImplicit)
	d.err = ErrUnterminatedStream
	d.view.ShowStatus(CompletedStatus)
}

// Fail handles a transport failure. It is terminal and replaces whatever
// progress was shown with a generic error.
func (d *Dispatcher) Fail(err error) {
	if d.state == StateTerminal {
		d.logger.Debug("transport failure after terminal state", "error", err)
		return
	}
	d.logger.Error("transport failure", "error", err)

	var te *TransportError
	if !errors.As(err, &te) {
		err = &TransportError{Err: err}
	}
	d.terminate(OutcomeTransportFailure)
	d.err = err
	d.view.RenderError(TransportFailureMessage)
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return d.state }

// Outcome returns how the session ended, or OutcomeNone while active.
func (d *Dispatcher) Outcome() Outcome { return d.outcome }

// Progress returns the last progress applied.
func (d *Dispatcher) Progress() Progress { return d.progress }

// Err returns the error attached to the terminal state, if any.
func (d *Dispatcher) Err() error { return d.err }

func (d *Dispatcher) setProgress(p Progress) {
	d.progress = p
	d.showing = true
	d.view.ShowProgress(p)
}

func (d *Dispatcher) terminate(o Outcome) {
	if d.showing {
		d.view.HideProgress()
		d.showing = false
	}
	d.state = StateTerminal
	d.outcome = o
}

// ResponseMeta formats the optional workflow metadata of a response.
func ResponseMeta(r frame.Response) []string {
	var meta []string
	if r.Intent != "" {
		meta = append(meta, "Intent: "+r.Intent)
	}
	if len(r.Plan) > 0 {
		meta = append(meta, "Plan: "+strings.Join(r.Plan, " → "))
	}
	return meta
}
