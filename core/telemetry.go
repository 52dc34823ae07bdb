package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Events carry operational metadata only. They never include the bearer
// token, request bodies, response bodies, or the query string (which holds
// the user's message text for /message).
type TelemetryHook interface {
	// OnRequestStart is called once before the first attempt of a Send.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called once when a Send returns.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	RequestID string    // X-Request-ID sent with every attempt
	Method    Method    // HTTP verb
	Path      string    // Escaped URL path without query
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
type RequestEndEvent struct {
	RequestID  string
	Method     Method
	Path       string
	Start      time.Time
	End        time.Time
	Attempts   int   // Transport attempts made, including the first
	StatusCode int   // 0 when no response was received
	Err        error // Error returned to the caller, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

var _ TelemetryHook = NoopTelemetryHook{}
