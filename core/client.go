package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when WithUserAgent is not used.
const DefaultUserAgent = "wit-go/1"

// maxResponseBytes caps how much of a response body is read. Larger bodies
// fail with ErrResponseTooLarge.
const maxResponseBytes = 8 << 20

// Client executes requests against the Wit API.
//
// A Client owns one connection pool built at construction and reuses it for
// every call. It is safe for concurrent use; LastRequest and LastResponse
// then reflect whichever call touched them last.
type Client struct {
	cfg       Config
	baseURL   *url.URL
	conn      *http.Client
	transport http.RoundTripper
	retry     RetryPolicy
	telemetry TelemetryHook
	logger    *zap.Logger
	limiter   *rate.Limiter
	userAgent string

	mu       sync.Mutex
	token    Secret
	lastReq  *Request
	lastResp *Response
}

// NewClient creates a Client from DefaultConfig with opts applied over it.
//
//	c, err := core.NewClient(core.WithToken(token), core.WithRetryLimit(2))
func NewClient(opts ...Option) (*Client, error) {
	return NewClientWithConfig(DefaultConfig(), opts...)
}

// NewClientWithConfig creates a Client from cfg with opts applied over it.
func NewClientWithConfig(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:       cfg,
		telemetry: NoopTelemetryHook{},
		logger:    zap.NewNop(),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	if c.transport == nil {
		t, err := newTransport(c.cfg)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	if c.retry == nil {
		c.retry = NewFlatRetry(c.cfg.RetryLimit)
	}

	c.token = NewSecret(c.cfg.Token)
	c.cfg.Token = ""
	c.baseURL = c.cfg.BaseURL()
	c.conn = &http.Client{Transport: c.transport}
	return c, nil
}

// Config returns the effective configuration. The token is not included.
func (c *Client) Config() Config {
	cfg := c.cfg
	if cfg.Proxy != nil {
		p := *cfg.Proxy
		cfg.Proxy = &p
	}
	return cfg
}

// BaseURL returns the scheme, host and port requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Token returns the current bearer token.
func (c *Client) Token() Secret {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ChangeAuth replaces the bearer token for all subsequent requests.
// Requests already in flight keep the token they were built with.
func (c *Client) ChangeAuth(token string) {
	c.mu.Lock()
	c.token = NewSecret(token)
	c.mu.Unlock()
}

// LastRequest returns a copy of the most recently built request, or nil.
func (c *Client) LastRequest() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq.Clone()
}

// LastResponse returns a copy of the most recently received response, or nil.
func (c *Client) LastResponse() *Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResp.Clone()
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Result, error) {
	return c.Send(ctx, MethodGet, path, nil)
}

// Put sends a PUT request with a payload.
func (c *Client) Put(ctx context.Context, path string, payload any) (*Result, error) {
	return c.Send(ctx, MethodPut, path, payload)
}

// Post sends a POST request with a payload.
func (c *Client) Post(ctx context.Context, path string, payload any) (*Result, error) {
	return c.Send(ctx, MethodPost, path, payload)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.Send(ctx, MethodDelete, path, nil)
}

// Send performs one API call.
//
// Transport failures are retried according to the retry policy; when retries
// run out the transport error is returned as is. Any HTTP response ends the
// loop: 200 yields a Result, 401 an APIError wrapping ErrUnauthorized, and any
// other status an APIError wrapping ErrBadResponse.
func (c *Client) Send(ctx context.Context, method Method, path string, payload any) (*Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	body, contentType, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req := &Request{
		Method: method,
		Path:   path,
		Header: c.buildHeaders(requestID, contentType),
		Body:   body,
	}

	c.mu.Lock()
	c.lastReq = req.Clone()
	c.mu.Unlock()

	start := time.Now()
	c.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: requestID,
		Method:    method,
		Path:      target.EscapedPath(),
		Start:     start,
	})

	resp, attempts, err := c.deliver(ctx, req, target)
	end := RequestEndEvent{
		RequestID: requestID,
		Method:    method,
		Path:      target.EscapedPath(),
		Start:     start,
		Attempts:  attempts,
	}
	if err != nil {
		end.End = time.Now()
		end.Err = err
		c.telemetry.OnRequestEnd(end)
		return nil, err
	}

	c.mu.Lock()
	c.lastResp = resp.Clone()
	c.mu.Unlock()

	result, err := c.interpret(resp, requestID)
	end.End = time.Now()
	end.StatusCode = resp.StatusCode
	end.Err = err
	c.telemetry.OnRequestEnd(end)
	return result, err
}

// deliver runs the attempt loop and returns the first response received.
func (c *Client) deliver(ctx context.Context, req *Request, target *url.URL) (*Response, int, error) {
	attempts := 0
	for retry := 0; ; retry++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, attempts, err
			}
		}

		attempts++
		c.logger.Debug("sending request",
			zap.String("method", req.Method.String()),
			zap.String("path", target.EscapedPath()),
			zap.Int("attempt", attempts),
		)
		resp, err := c.roundTrip(ctx, req, target)
		if err == nil {
			return resp, attempts, nil
		}
		if ctx.Err() != nil {
			return nil, attempts, err
		}

		delay, ok := c.retry.NextDelay(retry, err)
		if !ok {
			return nil, attempts, err
		}
		c.logger.Warn("transport failure, retrying",
			zap.String("method", req.Method.String()),
			zap.String("path", target.EscapedPath()),
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if serr := sleep(ctx, delay); serr != nil {
			return nil, attempts, err
		}
	}
}

// roundTrip sends one attempt and reads the whole response body.
func (c *Client) roundTrip(ctx context.Context, req *Request, target *url.URL) (*Response, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), target.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.Header.Clone()

	httpResp, err := c.conn.Do(httpReq)
	if err != nil {
		return nil, asReadTimeout(err, c.cfg.ReadTimeout)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, asReadTimeout(err, c.cfg.ReadTimeout)
	}
	if len(respBody) > maxResponseBytes {
		return nil, fmt.Errorf("%w: status %d body exceeds %d bytes", ErrResponseTooLarge, httpResp.StatusCode, maxResponseBytes)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       respBody,
	}, nil
}

// interpret maps a response to a Result or a classified error.
func (c *Client) interpret(resp *Response, requestID string) (*Result, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, normalizeError(resp, requestID)
	}
	result, err := parseResult(resp.Body)
	if err != nil {
		return nil, newDecodeError(resp, requestID, err)
	}
	return result, nil
}

// buildHeaders reads the token at call time so ChangeAuth takes effect.
func (c *Client) buildHeaders(requestID, contentType string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.Token().Expose())
	h.Set("Accept", "application/json")
	h.Set("User-Agent", c.userAgent)
	h.Set("X-Request-ID", requestID)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

// resolve joins a request path (which may carry a query) onto the base URL.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the API base URL", path)
	}
	return c.baseURL.ResolveReference(ref), nil
}
