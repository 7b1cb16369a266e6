// Package broadcast fans telemetry and alert updates out to live
// subscribers. Delivery is best effort: the cache is the source of truth and
// a failed or slow sink never blocks ingestion or rolls anything back.
package broadcast

import (
	"context"
	"log/slog"

	"fleetsync/internal/domain"
	"fleetsync/internal/metrics"
)

// Sink is one fan-out transport, e.g. the Redis bus or the websocket hub.
type Sink interface {
	PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) error
	PublishAlert(ctx context.Context, ev domain.AlertEvent) error
}

type Broadcaster struct {
	sinks []Sink
}

func New(sinks ...Sink) *Broadcaster {
	return &Broadcaster{sinks: sinks}
}

// PublishTelemetry pushes the record to every sink. Failures are logged and
// counted, nothing more.
func (b *Broadcaster) PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) {
	for _, s := range b.sinks {
		if err := s.PublishTelemetry(ctx, rec); err != nil {
			metrics.BroadcastFailures.Add(1)
			slog.Warn("broadcast: telemetry publish failed", "sink", sinkName(s), "truck", rec.TruckID, "err", err)
		}
	}
}

func (b *Broadcaster) PublishAlert(ctx context.Context, ev domain.AlertEvent) {
	for _, s := range b.sinks {
		if err := s.PublishAlert(ctx, ev); err != nil {
			metrics.BroadcastFailures.Add(1)
			slog.Warn("broadcast: alert publish failed", "sink", sinkName(s), "truck", ev.TruckID, "err", err)
		}
	}
}

func sinkName(s Sink) string {
	type named interface{ Name() string }
	if n, ok := s.(named); ok {
		return n.Name()
	}
	return "unknown"
}
