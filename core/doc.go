// Package core provides the connection and request pipeline for the Wit API.
//
// # Client
//
// [NewClient] merges options over [DefaultConfig] and builds a single
// connection pool that every request reuses:
//
//	c, err := core.NewClient(
//	    core.WithToken(os.Getenv("WIT_AI_TOKEN")),
//	    core.WithRetryLimit(2),
//	)
//	if err != nil {
//	    return err
//	}
//	res, err := c.Get(ctx, "/message?q=hello")
//
// The defaults target api.wit.ai:443 over TLS with peer verification, 30
// second connect and read timeouts, no explicit proxy, and one retry.
// Nothing in this package reads the environment; resolving the token from
// WIT_AI_TOKEN is the caller's job (see session.NewFromEnv).
//
// # Request pipeline
//
// [Client.Send] attaches `Authorization: Bearer <token>`, records the request
// as [Client.LastRequest], and delivers it. Transport failures (dial errors,
// timeouts, resets) are retried by the [RetryPolicy]; the default
// [FlatRetry] retries immediately up to Config.RetryLimit extra times and
// then returns the transport error unchanged. Every HTTP response is
// recorded as [Client.LastResponse] and classified:
//
//   - 200: the JSON body is parsed into a [Result]
//   - 401: [*APIError] wrapping [ErrUnauthorized], never retried
//   - anything else: [*APIError] wrapping [ErrBadResponse]
//
// Use errors.Is to check error types:
//
//	if errors.Is(err, core.ErrUnauthorized) {
//	    // token missing or revoked
//	}
//
// # Telemetry
//
// Implement [TelemetryHook] to observe request lifecycle, or use the hooks
// in the telemetry package. Events never carry the token, bodies, or query
// strings.
//
// # Thread Safety
//
// [Client] is safe for concurrent use. [Client.ChangeAuth] affects requests
// built after it returns.
package core
