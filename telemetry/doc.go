// Package telemetry provides core.TelemetryHook implementations: Prometheus
// metrics, a zap request log, and a fan-out combinator.
//
//	reg := prometheus.NewRegistry()
//	hook := telemetry.Multi(telemetry.NewMetrics(reg), telemetry.NewLogHook(logger))
//	client, err := core.NewClient(core.WithTelemetry(hook))
//
// Tracing lives in the separate contrib/otel module.
package telemetry
