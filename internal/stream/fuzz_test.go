package stream

import (
	"testing"

	"github.com/xiaot623/scholar/internal/frame"
)

// FuzzSessionFeed feeds arbitrary input split at an arbitrary offset.
// The session must never panic and must always end terminal with the
// progress indicator removed.
func FuzzSessionFeed(f *testing.F) {
	f.Add("data: {\"type\":\"status\",\"message\":\"Starting\"}\n\n", 10)
	f.Add("data: {\"type\":\"response\",\"response\":\"Done\",\"intent\":null}\n\n", 3)
	f.Add("data: {\"type\":\"progress\",\"message\":\"}\\\"{\",\"step\":2,\"total_steps\":5}\n", 0)
	f.Add("data: {\"type\":", 5)
	f.Add("data: data: data:\n\n\n", 7)
	f.Add("", 0)
	f.Add("garbage without marker", 4)

	f.Fuzz(func(t *testing.T, input string, split int) {
		view := &recordingView{}
		s := NewSession(view, nil)
		s.Start()

		if split < 0 {
			split = -split
		}
		if split > len(input) {
			split = len(input)
		}
		s.Feed([]byte(input[:split]))
		s.Feed([]byte(input[split:]))
		s.Finish()

		if s.State() != StateTerminal {
			t.Fatalf("session not terminal: %v", s.State())
		}
		if view.progressVisible {
			t.Fatalf("progress indicator left visible")
		}
		if s.Frames()+s.Dropped() > len(input) {
			t.Fatalf("more records than input bytes: %d", s.Frames()+s.Dropped())
		}
	})
}

// FuzzDecode checks that Decode never panics and that anything it accepts
// re-encodes.
func FuzzDecode(f *testing.F) {
	f.Add(`{"type":"status","message":"hi"}`)
	f.Add(`{"type":"heartbeat"}`)
	f.Add(`{"type":"response","response":"a","plan":["x"]}`)
	f.Add(`{"type":"progress","step":1e400}`)
	f.Add(`{`)

	f.Fuzz(func(t *testing.T, record string) {
		fr, err := frame.Decode(record)
		if err != nil {
			return
		}
		if _, err := frame.Marshal(fr); err != nil {
			t.Fatalf("decoded frame does not marshal: %v", err)
		}
	})
}
