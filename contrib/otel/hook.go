// Package witotel records Wit API requests as OpenTelemetry spans.
//
// Usage:
//
//	hook := witotel.NewHook(witotel.WithTracerProvider(tp))
//	client, err := core.NewClient(core.WithToken(token), core.WithTelemetry(hook))
package witotel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/telemetry"
)

// ScopeName is the instrumentation scope of the spans.
const ScopeName = "github.com/petal-labs/wit/contrib/otel"

// Hook implements core.TelemetryHook. Each request becomes one client span
// named after its method and route, e.g. "GET /entities/:id".
type Hook struct {
	tracer trace.Tracer
	parent context.Context

	mu    sync.Mutex
	spans map[string]trace.Span
}

// Option configures a Hook.
type Option func(*Hook)

// WithTracerProvider sets the provider spans are created from.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Hook) {
		if tp != nil {
			h.tracer = tp.Tracer(ScopeName)
		}
	}
}

// WithParent makes every span a child of the span in ctx.
func WithParent(ctx context.Context) Option {
	return func(h *Hook) {
		if ctx != nil {
			h.parent = ctx
		}
	}
}

// NewHook creates a tracing hook.
func NewHook(opts ...Option) *Hook {
	h := &Hook{
		tracer: otel.GetTracerProvider().Tracer(ScopeName),
		parent: context.Background(),
		spans:  make(map[string]trace.Span),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnRequestStart opens the span for a request.
func (h *Hook) OnRequestStart(e core.RequestStartEvent) {
	route := telemetry.Route(e.Path)
	_, span := h.tracer.Start(h.parent, e.Method.String()+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			attribute.String("http.request.method", e.Method.String()),
			attribute.String("url.path", e.Path),
			attribute.String("http.route", route),
			attribute.String("wit.request_id", e.RequestID),
		),
	)

	h.mu.Lock()
	h.spans[e.RequestID] = span
	h.mu.Unlock()
}

// OnRequestEnd closes the span opened for the same request id.
// Events without a matching start are ignored.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	h.mu.Lock()
	span, ok := h.spans[e.RequestID]
	delete(h.spans, e.RequestID)
	h.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(attribute.Int("wit.attempts", e.Attempts))
	if e.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", e.StatusCode))
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(e.End))
}

var _ core.TelemetryHook = (*Hook)(nil)
