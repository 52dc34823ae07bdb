package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/petal-labs/wit/core"
)

// DefaultAudioContentType is used by SendSoundMessage when none is given.
const DefaultAudioContentType = "audio/wav"

type messageParams struct {
	msgID    string
	threadID string
	context  any
	n        int
}

// MessageOption sets an optional /message query parameter.
type MessageOption func(*messageParams)

// WithMsgID sets the id Wit stores the message under.
func WithMsgID(id string) MessageOption {
	return func(p *messageParams) { p.msgID = id }
}

// WithThreadID groups messages of one conversation.
func WithThreadID(id string) MessageOption {
	return func(p *messageParams) { p.threadID = id }
}

// WithMessageContext attaches a context object (reference time, timezone,
// locale, coordinates). It is sent JSON-encoded.
func WithMessageContext(v any) MessageOption {
	return func(p *messageParams) { p.context = v }
}

// WithMaxOutcomes asks for up to n ranked outcomes.
func WithMaxOutcomes(n int) MessageOption {
	return func(p *messageParams) { p.n = n }
}

// SendMessage asks Wit to understand text.
//
//	res, err := s.SendMessage(ctx, "turn the lights red")
//	fmt.Println(res.MsgID())
func (s *Session) SendMessage(ctx context.Context, text string, opts ...MessageOption) (*core.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text", ErrMissingID)
	}

	var p messageParams
	for _, opt := range opts {
		opt(&p)
	}

	q := url.Values{}
	q.Set("q", text)
	if p.msgID != "" {
		q.Set("msg_id", p.msgID)
	}
	if p.threadID != "" {
		q.Set("thread_id", p.threadID)
	}
	if p.context != nil {
		b, err := json.Marshal(p.context)
		if err != nil {
			return nil, fmt.Errorf("failed to encode message context: %w", err)
		}
		q.Set("context", string(b))
	}
	if p.n > 0 {
		q.Set("n", strconv.Itoa(p.n))
	}

	return s.client.Send(ctx, core.MethodGet, s.path(q, "message"), nil)
}

// SendSoundMessage streams recorded speech to /speech. contentType is the
// audio MIME type, for example "audio/wav" or "audio/mpeg3".
func (s *Session) SendSoundMessage(ctx context.Context, audio io.Reader, contentType string) (*core.Result, error) {
	if audio == nil {
		return nil, fmt.Errorf("%w: audio", ErrMissingID)
	}
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if contentType == "" {
		contentType = DefaultAudioContentType
	}
	payload := core.RawPayload{ContentType: contentType, Data: data}
	return s.client.Send(ctx, core.MethodPost, s.path(nil, "speech"), payload)
}

// GetMessage fetches a stored message by id.
func (s *Session) GetMessage(ctx context.Context, id string) (*core.Result, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodGet, s.path(nil, "messages", id), nil)
}
