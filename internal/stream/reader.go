// Package stream turns a chunked frame stream back into frames and drives the
// client-side session state for one streamed request.
package stream

import (
	"bytes"
	"errors"

	"github.com/xiaot623/scholar/internal/frame"
)

// DefaultMaxBuffer bounds the unparsed tail a Reader will hold (1MB).
const DefaultMaxBuffer = 1024 * 1024

var (
	// ErrReaderClosed is returned by Feed after Finish.
	ErrReaderClosed = errors.New("stream reader closed")
	// ErrBufferOverflow is returned when the unparsed tail exceeds the
	// configured limit. The tail is discarded.
	ErrBufferOverflow = errors.New("stream reader buffer overflow")
)

var marker = []byte(frame.Marker)

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxBuffer sets the maximum size of the unparsed tail.
func WithMaxBuffer(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxBuffer = n
		}
	}
}

// Reader extracts complete records from chunks that arrive at arbitrary
// boundaries. A record runs from a marker to the newline that is followed
// either by the next marker or by the end of the buffered data. A Reader is
// owned by a single session and is not safe for concurrent use.
type Reader struct {
	buf       []byte
	maxBuffer int
	closed    bool
}

// NewReader creates a Reader.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{maxBuffer: DefaultMaxBuffer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed appends chunk and returns every record it completed, in the order
// their markers appear. The incomplete tail stays buffered for the next call.
func (r *Reader) Feed(chunk []byte) ([]string, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	if len(chunk) == 0 {
		return nil, nil
	}

	r.buf = append(r.buf, chunk...)
	records := r.extract()

	if len(r.buf) > r.maxBuffer {
		r.buf = nil
		return records, ErrBufferOverflow
	}
	return records, nil
}

// Finish flushes the buffered tail and closes the Reader. Records completed
// by the end of the data are yielded first; a trailing partial marker is
// discarded; whatever remains after a marker becomes one final record.
// Calling Finish again returns nil.
func (r *Reader) Finish() []string {
	if r.closed {
		return nil
	}
	r.closed = true

	r.buf = trimPartialMarker(r.buf)
	records := r.extract()

	buf := r.buf
	r.buf = nil

	start := bytes.Index(buf, marker)
	if start < 0 {
		return records
	}
	tail := bytes.TrimRight(buf[start+len(marker):], "\r\n")
	if len(bytes.TrimSpace(tail)) == 0 {
		return records
	}
	return append(records, string(tail))
}

// trimPartialMarker drops a final line that holds only the beginning of a
// marker, so the record before it can end at the end of the data.
func trimPartialMarker(buf []byte) []byte {
	nl := bytes.LastIndexByte(buf, '\n')
	if nl < 0 {
		return buf
	}
	rest := bytes.TrimLeft(buf[nl+1:], "\r\n")
	if len(rest) > 0 && len(rest) < len(marker) && bytes.HasPrefix(marker, rest) {
		return buf[:nl+1]
	}
	return buf
}

// Buffered returns the number of bytes waiting for completion.
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// Closed reports whether Finish has been called.
func (r *Reader) Closed() bool {
	return r.closed
}

func (r *Reader) extract() []string {
	var records []string
	for {
		start := bytes.Index(r.buf, marker)
		if start < 0 {
			return records
		}
		body := start + len(marker)

		end, ok := r.recordEnd(body)
		if !ok {
			// Bytes before the marker are blank separators or stray preamble.
			r.buf = r.buf[start:]
			return records
		}

		records = append(records, string(bytes.TrimSuffix(r.buf[body:end], []byte{'\r'})))
		r.buf = r.buf[end+1:]
	}
}

// recordEnd returns the index of the newline ending the record whose payload
// starts at from.
func (r *Reader) recordEnd(from int) (int, bool) {
	for i := from; i < len(r.buf); {
		nl := bytes.IndexByte(r.buf[i:], '\n')
		if nl < 0 {
			return 0, false
		}
		nl += i

		rest := bytes.TrimLeft(r.buf[nl+1:], "\r\n")
		switch {
		case len(rest) == 0, bytes.HasPrefix(rest, marker):
			return nl, true
		case bytes.HasPrefix(marker, rest):
			// A marker may be arriving split across chunks.
			return 0, false
		}
		i = nl + 1
	}
	return 0, false
}
