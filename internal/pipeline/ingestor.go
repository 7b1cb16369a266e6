package pipeline

import (
	"context"
	"log/slog"

	"fleetsync/internal/broadcast"
	"fleetsync/internal/cache"
	"fleetsync/internal/domain"
	"fleetsync/internal/metrics"
)

// Ingestor consumes raw payloads from the inbound bus and drives one unit of
// work per message: decode, update the cache, evaluate alerts, broadcast.
// For a single record the cache update always happens before its broadcast,
// so a dashboard that re-queries on push sees a cache at least as fresh as
// the push. Several Run loops may share one channel; everything the ingestor
// touches is concurrency safe.
type Ingestor struct {
	ch          <-chan []byte
	cache       *cache.StateCache
	evaluator   *Evaluator
	broadcaster *broadcast.Broadcaster
	dispatcher  *Dispatcher
}

func NewIngestor(
	ch <-chan []byte,
	c *cache.StateCache,
	e *Evaluator,
	b *broadcast.Broadcaster,
	d *Dispatcher,
) *Ingestor {
	return &Ingestor{
		ch:          ch,
		cache:       c,
		evaluator:   e,
		broadcaster: b,
		dispatcher:  d,
	}
}

func (i *Ingestor) Run(ctx context.Context) {
	for {
		select {
		case raw, ok := <-i.ch:
			if !ok {
				return
			}
			i.process(ctx, raw)

		case <-ctx.Done():
			return
		}
	}
}

func (i *Ingestor) process(ctx context.Context, raw []byte) {
	metrics.MessagesReceived.Add(1)

	rec, err := domain.DecodeTelemetry(raw)
	if err != nil {
		metrics.ParseFailures.Add(1)
		slog.Warn("ingest: dropping malformed payload", "err", err)
		return
	}

	i.cache.UpdateTelemetry(rec)

	alerts := i.evaluator.Evaluate(&rec)
	if len(alerts) > 0 {
		i.cache.RecordAlert(domain.RenderAlerts(rec.TruckID, alerts))
		metrics.AlertsRaised.Add(int64(len(alerts)))
	}

	i.broadcaster.PublishTelemetry(ctx, rec)
	for _, ev := range alerts {
		i.broadcaster.PublishAlert(ctx, ev)
	}

	i.dispatcher.Dispatch(rec)
}
