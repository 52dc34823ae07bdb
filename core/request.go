package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is the outgoing call as the client built it.
// The last one sent is retained by the client for inspection.
type Request struct {
	Method Method
	Path   string
	Header http.Header
	Body   []byte
}

// Clone returns a deep copy.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	return &Request{
		Method: r.Method,
		Path:   r.Path,
		Header: r.Header.Clone(),
		Body:   bytes.Clone(r.Body),
	}
}

// Response is the HTTP response as received, with the body fully read.
// The last one received is retained by the client for inspection.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns a deep copy.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       bytes.Clone(r.Body),
	}
}

// RawPayload is sent verbatim with its own content type, e.g. audio for /speech.
type RawPayload struct {
	ContentType string
	Data        []byte
}

// encodePayload returns the request body and its content type.
// nil yields no body; RawPayload is sent as is; anything else is JSON.
func encodePayload(payload any) ([]byte, string, error) {
	switch p := payload.(type) {
	case nil:
		return nil, "", nil
	case RawPayload:
		return p.Data, p.ContentType, nil
	case *RawPayload:
		if p == nil {
			return nil, "", nil
		}
		return p.Data, p.ContentType, nil
	case json.RawMessage:
		return p, "application/json", nil
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, "", fmt.Errorf("encode payload: %w", err)
		}
		return b, "application/json", nil
	}
}
