package telemetry

import "github.com/petal-labs/wit/core"

// Multi fans events out to several hooks in order. Nil hooks are skipped.
func Multi(hooks ...core.TelemetryHook) core.TelemetryHook {
	var hs multiHook
	for _, h := range hooks {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

type multiHook []core.TelemetryHook

func (m multiHook) OnRequestStart(e core.RequestStartEvent) {
	for _, h := range m {
		h.OnRequestStart(e)
	}
}

func (m multiHook) OnRequestEnd(e core.RequestEndEvent) {
	for _, h := range m {
		h.OnRequestEnd(e)
	}
}
