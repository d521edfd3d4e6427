package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/scholar/internal/frame"
)

// frameWriter streams frame records to an echo response. Headers are sent
// with the first frame so a request rejected before streaming can still
// answer with a JSON error.
type frameWriter struct {
	res     *echo.Response
	started bool
}

func newFrameWriter(res *echo.Response) *frameWriter {
	return &frameWriter{res: res}
}

// WriteFrame encodes f, writes it and flushes.
func (w *frameWriter) WriteFrame(f frame.Frame) error {
	record, err := frame.Encode(f)
	if err != nil {
		return err
	}
	if !w.started {
		h := w.res.Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.res.WriteHeader(http.StatusOK)
		w.started = true
	}
	if _, err := w.res.Write(record); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

// Started reports whether any frame has been written.
func (w *frameWriter) Started() bool {
	return w.started
}
