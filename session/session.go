package session

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/petal-labs/wit/core"
)

// TokenEnvVar is the environment variable NewFromEnv reads the token from.
const TokenEnvVar = "WIT_AI_TOKEN"

var (
	// ErrMissingID is returned when a required identifier is empty.
	ErrMissingID = errors.New("session: missing identifier")

	// ErrTokenNotFound is returned by NewFromEnv when WIT_AI_TOKEN is unset.
	ErrTokenNotFound = errors.New("session: WIT_AI_TOKEN not set")
)

// Sender executes one API call. *core.Client implements it.
type Sender interface {
	Send(ctx context.Context, method core.Method, path string, payload any) (*core.Result, error)
}

var _ Sender = (*core.Client)(nil)

// Session exposes the Wit API operations on top of a Sender.
type Session struct {
	client     Sender
	apiVersion string
}

// Option configures a Session.
type Option func(*Session)

// WithAPIVersion pins the API version sent as the v query parameter,
// for example "20240304".
func WithAPIVersion(v string) Option {
	return func(s *Session) {
		s.apiVersion = strings.TrimSpace(v)
	}
}

// New creates a Session that sends through client.
func New(client Sender, opts ...Option) *Session {
	s := &Session{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromEnv builds a core.Client with the token from WIT_AI_TOKEN and wraps
// it in a Session. opts are applied after the token, so a WithToken there
// still wins.
//
//	s, err := session.NewFromEnv(core.WithRetryLimit(2))
func NewFromEnv(opts ...core.Option) (*Session, error) {
	token, ok := os.LookupEnv(TokenEnvVar)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrTokenNotFound
	}
	client, err := core.NewClient(append([]core.Option{core.WithToken(token)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// Do sends a request to an API path this package does not wrap. path may
// carry a query; the pinned API version is added unless it already sets v.
func (s *Session) Do(ctx context.Context, method core.Method, path string, payload any) (*core.Result, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if s.apiVersion != "" {
		u, err := url.Parse(path)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		if q.Get("v") == "" {
			q.Set("v", s.apiVersion)
			u.RawQuery = q.Encode()
		}
		path = u.String()
	}
	return s.client.Send(ctx, method, path, payload)
}

// path joins escaped segments into an API path and appends the query,
// including the pinned API version when set.
func (s *Session) path(query url.Values, segments ...string) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if s.apiVersion != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("v", s.apiVersion)
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// requireIDs fails fast when any identifier is blank.
func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrMissingID
		}
	}
	return nil
}
