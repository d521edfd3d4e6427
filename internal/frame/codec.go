package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Marker prefixes every record on the wire.
const Marker = "data: "

// ErrMalformedFrame is returned when a record fails structural validation or
// decoding. Callers drop the record and keep the session alive.
var ErrMalformedFrame = errors.New("malformed frame")

// Marshal returns the JSON payload of f, including its "type" field.
func Marshal(f Frame) ([]byte, error) {
	switch v := f.(type) {
	case Status:
		return json.Marshal(struct {
			Type Type `json:"type"`
			Status
		}{TypeStatus, v})
	case Progress:
		return json.Marshal(struct {
			Type Type `json:"type"`
			Progress
		}{TypeProgress, v})
	case Response:
		return json.Marshal(struct {
			Type Type `json:"type"`
			Response
		}{TypeResponse, v})
	case Error:
		return json.Marshal(struct {
			Type Type `json:"type"`
			Error
		}{TypeError, v})
	case Complete:
		return json.Marshal(struct {
			Type Type `json:"type"`
			Complete
		}{TypeComplete, v})
	case Unknown:
		if !json.Valid(v.Raw) {
			return nil, fmt.Errorf("unknown frame %q has invalid payload", v.Kind)
		}
		return v.Raw, nil
	case nil:
		return nil, errors.New("nil frame")
	}
	return nil, fmt.Errorf("unsupported frame %T", f)
}

// Encode returns the wire record for f: the marker, the payload and a
// terminating blank line.
func Encode(f Frame) ([]byte, error) {
	payload, err := Marshal(f)
	if err != nil {
		return nil, err
	}
	if strings.ContainsRune(string(payload), '\n') {
		// Unreachable for JSON produced by Marshal, but Unknown carries raw bytes.
		return nil, fmt.Errorf("frame %q payload contains a raw newline", f.Type())
	}
	record := make([]byte, 0, len(Marker)+len(payload)+2)
	record = append(record, Marker...)
	record = append(record, payload...)
	record = append(record, '\n', '\n')
	return record, nil
}

// Decode parses a record whose marker has already been stripped.
// Errors match ErrMalformedFrame.
func Decode(record string) (Frame, error) {
	payload := strings.TrimSpace(record)
	if payload == "" {
		return nil, malformed("empty record", nil)
	}
	if !Balanced(payload) {
		return nil, malformed("unbalanced payload", nil)
	}
	if !json.Valid([]byte(payload)) {
		return nil, malformed("invalid JSON", nil)
	}

	kind := gjson.Get(payload, "type")
	if kind.Type != gjson.String || kind.Str == "" {
		return nil, malformed("missing type", nil)
	}

	switch Type(kind.Str) {
	case TypeStatus:
		return decodeAs[Status](payload)
	case TypeProgress:
		return decodeAs[Progress](payload)
	case TypeResponse:
		return decodeAs[Response](payload)
	case TypeError:
		return decodeAs[Error](payload)
	case TypeComplete:
		return decodeAs[Complete](payload)
	}
	return Unknown{Kind: Type(kind.Str), Raw: json.RawMessage(payload)}, nil
}

func decodeAs[T Frame](payload string) (Frame, error) {
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, malformed("decode "+string(v.Type()), err)
	}
	return v, nil
}

func malformed(reason string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, reason, cause)
	}
	return fmt.Errorf("%w: %s", ErrMalformedFrame, reason)
}
