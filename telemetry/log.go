package telemetry

import (
	"go.uber.org/zap"

	"github.com/petal-labs/wit/core"
)

// LogHook writes one structured log line per completed call.
type LogHook struct {
	logger *zap.Logger
}

var _ core.TelemetryHook = (*LogHook)(nil)

// NewLogHook returns a hook that logs through logger. A nil logger is a no-op.
func NewLogHook(logger *zap.Logger) *LogHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHook{logger: logger}
}

// OnRequestStart implements core.TelemetryHook.
func (h *LogHook) OnRequestStart(e core.RequestStartEvent) {
	h.logger.Debug("wit request started",
		zap.String("request_id", e.RequestID),
		zap.String("method", e.Method.String()),
		zap.String("path", e.Path),
	)
}

// OnRequestEnd implements core.TelemetryHook.
func (h *LogHook) OnRequestEnd(e core.RequestEndEvent) {
	fields := []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("method", e.Method.String()),
		zap.String("path", e.Path),
		zap.Int("status", e.StatusCode),
		zap.Int("attempts", e.Attempts),
		zap.Duration("duration", e.Duration()),
	}
	switch {
	case e.Err == nil:
		h.logger.Info("wit request completed", fields...)
	case e.StatusCode == 0:
		h.logger.Error("wit request failed", append(fields, zap.Error(e.Err))...)
	default:
		h.logger.Warn("wit request rejected", append(fields, zap.Error(e.Err))...)
	}
}
