package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result wraps the structured value parsed from a successful response.
// The value is whatever the body held: an object, an array, or a scalar.
type Result struct {
	value any
}

// NewResult wraps an already parsed value.
func NewResult(v any) *Result {
	return &Result{value: v}
}

// parseResult decodes a 200 body. An empty body yields a Result holding nil.
func parseResult(body []byte) (*Result, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Result{}, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &Result{value: v}, nil
}

// Value returns the underlying parsed value.
func (r *Result) Value() any {
	return r.value
}

// Map returns the value as an object, or nil if it is not one.
func (r *Result) Map() map[string]any {
	m, _ := r.value.(map[string]any)
	return m
}

// Slice returns the value as an array, or nil if it is not one.
func (r *Result) Slice() []any {
	s, _ := r.value.([]any)
	return s
}

// Get looks up a top-level field.
func (r *Result) Get(key string) (any, bool) {
	m := r.Map()
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// String returns a top-level field as a string.
// Numbers and booleans are formatted; missing or structured fields yield "".
func (r *Result) String(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// MsgID returns the message id of a message result.
func (r *Result) MsgID() string {
	return r.String("msg_id")
}

// Text returns the text that was understood.
func (r *Result) Text() string {
	if s := r.String("text"); s != "" {
		return s
	}
	return r.String("_text")
}

// Decode re-encodes the value into v, typically a typed struct.
func (r *Result) Decode(v any) error {
	b, err := json.Marshal(r.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// MarshalJSON encodes the underlying value.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}
