package llm

import (
	"go.uber.org/zap"
)

// LLMCallEvent records metadata about a single LLM invocation.
type LLMCallEvent struct {
	Task      TaskType
	Provider  Provider
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// LogObserver writes LLM call events to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates an Observer that logs events through log.
func NewLogObserver(log *zap.Logger) *LogObserver {
	return &LogObserver{log: log.Named("llm")}
}

func (o *LogObserver) OnCallComplete(event LLMCallEvent) {
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	fields := []zap.Field{
		zap.String("task", string(event.Task)),
		zap.String("provider", string(event.Provider)),
		zap.String("model", event.Model),
		zap.Int64("latency_ms", event.LatencyMs),
		zap.String("status", status),
	}
	if event.Success {
		o.log.Info("llm_call", fields...)
		return
	}
	o.log.Warn("llm_call", fields...)
}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(event LLMCallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCallComplete(event)
		}
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
