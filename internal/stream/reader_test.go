package stream

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/frame"
)

func sampleFrames() []frame.Frame {
	return []frame.Frame{
		frame.Status{Message: "Starting analysis...", ProcessID: "p1"},
		frame.Progress{Message: "Analyzing request intent...", Step: 1, TotalSteps: 5},
		frame.Progress{Message: "Searching {papers} \"quoted\" data: inline", Step: 2, TotalSteps: 5},
		frame.Response{Response: "Done\n\nwith a paragraph", Intent: "research", Plan: []string{"a", "b"}},
		frame.Complete{Message: "Process completed successfully", ProcessID: "p1"},
	}
}

func encodeAll(t *testing.T, frames []frame.Frame) []byte {
	t.Helper()
	var out []byte
	for _, f := range frames {
		rec, err := frame.Encode(f)
		require.NoError(t, err)
		out = append(out, rec...)
	}
	return out
}

func decodeRecords(t *testing.T, records []string) []frame.Frame {
	t.Helper()
	var out []frame.Frame
	for _, rec := range records {
		f, err := frame.Decode(rec)
		require.NoError(t, err, "record %q", rec)
		out = append(out, f)
	}
	return out
}

func readAll(r *Reader, chunks ...[]byte) []string {
	var records []string
	for _, c := range chunks {
		got, _ := r.Feed(c)
		records = append(records, got...)
	}
	return append(records, r.Finish()...)
}

func TestReaderChunkingInvarianceSingleSplit(t *testing.T) {
	frames := sampleFrames()
	wire := encodeAll(t, frames)

	for i := 0; i <= len(wire); i++ {
		records := readAll(NewReader(), wire[:i], wire[i:])
		assert.Equal(t, frames, decodeRecords(t, records), "split at %d", i)
	}
}

func TestReaderChunkingInvarianceByteByByte(t *testing.T) {
	frames := sampleFrames()
	wire := encodeAll(t, frames)

	r := NewReader()
	var chunks [][]byte
	for i := range wire {
		chunks = append(chunks, wire[i:i+1])
	}
	assert.Equal(t, frames, decodeRecords(t, readAll(r, chunks...)))
}

func TestReaderChunkingInvarianceRandomSplits(t *testing.T) {
	frames := sampleFrames()
	wire := encodeAll(t, frames)
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		var chunks [][]byte
		for rest := wire; len(rest) > 0; {
			n := rng.Intn(17)
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		assert.Equal(t, frames, decodeRecords(t, readAll(NewReader(), chunks...)))
	}
}

func TestReaderMultipleRecordsInOneChunk(t *testing.T) {
	frames := sampleFrames()
	r := NewReader()

	records, err := r.Feed(encodeAll(t, frames))
	require.NoError(t, err)
	assert.Equal(t, frames, decodeRecords(t, records))
	assert.Nil(t, r.Finish())
}

func TestReaderSingleNewlineTerminator(t *testing.T) {
	r := NewReader()
	records, err := r.Feed([]byte("data: {\"type\":\"status\",\"message\":\"a\"}\ndata: {\"type\":\"status\",\"message\":\"b\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"status","message":"a"}`, `{"type":"status","message":"b"}`}, records)
}

func TestReaderRetainsIncompleteTail(t *testing.T) {
	r := NewReader()

	records, err := r.Feed([]byte(`data: {"type":"status","mess`))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Positive(t, r.Buffered())

	records, err = r.Feed([]byte("age\":\"hi\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"status","message":"hi"}`}, records)
}

func TestReaderWaitsOnPartialMarker(t *testing.T) {
	r := NewReader()

	records, _ := r.Feed([]byte("data: {\"a\":1}\n\nda"))
	assert.Empty(t, records)

	records, _ = r.Feed([]byte("ta: {\"b\":2}\n"))
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, records)
}

func TestReaderEmptyChunkIsNoop(t *testing.T) {
	r := NewReader()
	records, err := r.Feed(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = r.Feed([]byte{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, r.Buffered())
}

func TestReaderChunkWithoutMarkerGrowsBuffer(t *testing.T) {
	r := NewReader()
	records, err := r.Feed([]byte("keep-alive\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, len("keep-alive\n"), r.Buffered())

	records, err = r.Feed([]byte("data: {\"x\":1}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"x":1}`}, records)
}

func TestReaderUnbalancedRecordDroppedThenRecovers(t *testing.T) {
	wire := "data: {\"type\":\"status\",\"message\":\"broken\n" +
		"data: {\"type\":\"status\",\"message\":\"ok\"}\n"

	records := readAll(NewReader(), []byte(wire))
	require.Len(t, records, 2)

	_, err := frame.Decode(records[0])
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)

	f, err := frame.Decode(records[1])
	require.NoError(t, err)
	assert.Equal(t, frame.Status{Message: "ok"}, f)
}

func TestReaderFinishEmptyBuffer(t *testing.T) {
	r := NewReader()
	assert.Nil(t, r.Finish())
	assert.True(t, r.Closed())
}

func TestReaderFinishFlushesTrailingRecord(t *testing.T) {
	r := NewReader()
	records, _ := r.Feed([]byte(`data: {"type":"response","response":"Done"}`))
	assert.Empty(t, records)

	records = r.Finish()
	require.Len(t, records, 1)
	f, err := frame.Decode(records[0])
	require.NoError(t, err)
	assert.Equal(t, frame.Response{Response: "Done"}, f)
}

func TestReaderFinishTrailingGarbage(t *testing.T) {
	r := NewReader()
	r.Feed([]byte(`data: {"type":"response","resp`))

	records := r.Finish()
	require.Len(t, records, 1)
	_, err := frame.Decode(records[0])
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)

	assert.Nil(t, r.Finish())
}

func TestReaderFinishKeepsRecordBeforePartialMarker(t *testing.T) {
	r := NewReader()
	records, err := r.Feed([]byte("data: {\"type\":\"response\",\"response\":\"Done\"}\n\nda"))
	require.NoError(t, err)
	assert.Empty(t, records)

	records = r.Finish()
	require.Len(t, records, 1)
	f, err := frame.Decode(records[0])
	require.NoError(t, err)
	assert.Equal(t, frame.Response{Response: "Done"}, f)
}

func TestReaderFinishPartialMarkerEverySplit(t *testing.T) {
	frames := sampleFrames()
	wire := append(encodeAll(t, frames), "data:"...)

	for i := 0; i <= len(wire); i++ {
		records := readAll(NewReader(), wire[:i], wire[i:])
		assert.Equal(t, frames, decodeRecords(t, records), "split at %d", i)
	}
}

func TestReaderFinishWithoutMarkerDiscards(t *testing.T) {
	r := NewReader()
	r.Feed([]byte("no marker here"))
	assert.Nil(t, r.Finish())
	assert.Zero(t, r.Buffered())
}

func TestReaderFeedAfterFinish(t *testing.T) {
	r := NewReader()
	r.Finish()
	records, err := r.Feed([]byte("data: {}\n"))
	assert.ErrorIs(t, err, ErrReaderClosed)
	assert.Empty(t, records)
}

func TestReaderBufferOverflow(t *testing.T) {
	r := NewReader(WithMaxBuffer(32))

	_, err := r.Feed([]byte("data: " + strings.Repeat("x", 64)))
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Zero(t, r.Buffered())

	records, err := r.Feed([]byte("data: {\"a\":1}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`}, records)
}

func TestReaderNeverYieldsTwice(t *testing.T) {
	r := NewReader()
	first, _ := r.Feed([]byte("data: {\"a\":1}\n"))
	second, _ := r.Feed([]byte("\n"))
	third := r.Finish()

	assert.Equal(t, []string{`{"a":1}`}, first)
	assert.Empty(t, second)
	assert.Empty(t, third)
}
