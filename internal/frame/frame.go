// Package frame defines the typed events streamed from the assistant to its
// clients and the line-oriented codec that carries them.
package frame

import "encoding/json"

// Type identifies the kind of a frame on the wire.
type Type string

const (
	TypeStatus   Type = "status"
	TypeProgress Type = "progress"
	TypeResponse Type = "response"
	TypeError    Type = "error"
	TypeComplete Type = "complete"
)

// DefaultTotalSteps is the plan length assumed by a bare status frame.
const DefaultTotalSteps = 5

// Frame is one self-contained event. The set of implementations is closed:
// Status, Progress, Response, Error, Complete and Unknown.
type Frame interface {
	Type() Type
	isFrame()
}

// Status is a single human-readable status line.
type Status struct {
	Message   string `json:"message"`
	ProcessID string `json:"process_id,omitempty"`
}

// Progress reports a step of the producer's workflow.
type Progress struct {
	Message    string `json:"message"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
}

// Response carries the final answer and optional workflow metadata.
type Response struct {
	Response string   `json:"response"`
	Intent   string   `json:"intent,omitempty"`
	Plan     []string `json:"plan,omitempty"`
}

// Error is a terminal failure reported by the producer.
type Error struct {
	Message   string `json:"message"`
	ProcessID string `json:"process_id,omitempty"`
}

// Complete marks the end of the producer's stream. It carries no state.
type Complete struct {
	Message   string `json:"message"`
	ProcessID string `json:"process_id,omitempty"`
}

// Unknown holds a well-formed frame whose type this package does not model.
// Raw is the complete payload, including its "type" field.
type Unknown struct {
	Kind Type
	Raw  json.RawMessage
}

func (Status) Type() Type   { return TypeStatus }
func (Progress) Type() Type { return TypeProgress }
func (Response) Type() Type { return TypeResponse }
func (Error) Type() Type    { return TypeError }
func (Complete) Type() Type { return TypeComplete }
func (u Unknown) Type() Type {
	return u.Kind
}

func (Status) isFrame()   {}
func (Progress) isFrame() {}
func (Response) isFrame() {}
func (Error) isFrame()    {}
func (Complete) isFrame() {}
func (Unknown) isFrame()  {}

// IsTerminal reports whether no further frames are expected after f.
func IsTerminal(f Frame) bool {
	switch f.(type) {
	case Response, Error:
		return true
	}
	return false
}
