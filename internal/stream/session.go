package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/xiaot623/scholar/internal/frame"
)

const readChunkSize = 32 * 1024

// Session is the client-side state of one streamed request: the buffered
// tail of received bytes and the dispatcher state. Create one per request and
// discard it once terminal.
type Session struct {
	reader     *Reader
	dispatcher *Dispatcher
	logger     *slog.Logger
	frames     int
	dropped    int
}

// NewSession creates an idle session rendering to view.
func NewSession(view View, logger *slog.Logger, opts ...ReaderOption) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		reader:     NewReader(opts...),
		dispatcher: NewDispatcher(view, logger),
		logger:     logger,
	}
}

// Start marks the request as submitted.
func (s *Session) Start() {
	s.dispatcher.Begin()
}

// Feed processes one chunk from the transport.
func (s *Session) Feed(chunk []byte) {
	records, err := s.reader.Feed(chunk)
	s.dispatch(records)
	if err != nil {
		if errors.Is(err, ErrBufferOverflow) {
			s.logger.Warn("discarding oversized partial record", "limit", s.reader.maxBuffer)
			return
		}
		s.logger.Debug("chunk ignored", "error", err)
	}
}

// Finish handles end of stream: the buffered tail is attempted once and the
// session becomes terminal.
func (s *Session) Finish() {
	s.dispatch(s.reader.Finish())
	s.dispatcher.End()
}

// Fail terminates the session after a transport failure.
func (s *Session) Fail(err error) {
	s.reader.Finish()
	s.dispatcher.Fail(err)
}

// Consume reads body until EOF, feeding every chunk and finishing the
// session. A read error fails the session and is returned as a
// *TransportError.
func (s *Session) Consume(ctx context.Context, body io.Reader) error {
	s.Start()
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			s.Fail(err)
			return &TransportError{Err: err}
		}

		n, err := body.Read(buf)
		if n > 0 {
			s.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			s.Finish()
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.Fail(err)
			return &TransportError{Err: err}
		}
	}
}

// State returns the dispatcher state.
func (s *Session) State() State { return s.dispatcher.State() }

// Outcome returns how the session ended.
func (s *Session) Outcome() Outcome { return s.dispatcher.Outcome() }

// Progress returns the last progress applied.
func (s *Session) Progress() Progress { return s.dispatcher.Progress() }

// Err returns the error attached to the terminal state, if any.
func (s *Session) Err() error { return s.dispatcher.Err() }

// Frames returns the number of frames decoded so far.
func (s *Session) Frames() int { return s.frames }

// Dropped returns the number of malformed records discarded so far.
func (s *Session) Dropped() int { return s.dropped }

func (s *Session) dispatch(records []string) {
	for _, rec := range records {
		f, err := frame.Decode(rec)
		if err != nil {
			s.dropped++
			s.logger.Debug("dropping malformed frame", "error", err, "bytes", len(rec))
			continue
		}
		s.frames++
		s.dispatcher.Apply(f)
	}
}
