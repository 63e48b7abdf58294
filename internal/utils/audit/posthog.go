// Package audit wraps the PostHog client so callers never have to care
// whether the sink is configured. Events are best-effort operational
// visibility only; the wrapper is a no-op when no API key is set.
package audit

import (
	"log/slog"

	"github.com/posthog/posthog-go"
)

// Sink is a nil-safe wrapper around a posthog.Client.
type Sink struct {
	client posthog.Client
	logger *slog.Logger
}

// NewSink initializes the audit sink. With an empty API key it returns a
// disabled sink whose Enqueue and Close are no-ops.
func NewSink(apiKey, endpoint string, logger *slog.Logger) *Sink {
	if apiKey == "" {
		logger.Info("audit sink disabled, no API key configured")
		return &Sink{logger: logger}
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logger.Warn("failed to initialize audit sink, events will be dropped", slog.String("error", err.Error()))
		return &Sink{logger: logger}
	}
	return &Sink{client: client, logger: logger}
}

// IsEnabled reports whether events will actually be sent.
func (s *Sink) IsEnabled() bool {
	return s != nil && s.client != nil
}

// Enqueue captures one event. Errors are logged and dropped.
func (s *Sink) Enqueue(distinctID, event string, properties map[string]any) {
	if !s.IsEnabled() {
		return
	}
	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	if err := s.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		s.logger.Warn("failed to enqueue audit event",
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}

// Close flushes any buffered events.
func (s *Sink) Close() {
	if !s.IsEnabled() {
		return
	}
	_ = s.client.Close()
}
