package pipeline

import (
	"fleetsync/internal/domain"
	"fleetsync/internal/metrics"
)

// Dispatcher hands accepted records to the history writer without ever
// blocking ingestion. If the writer falls behind and the channel fills, the
// record is dropped from the durable path only; the cache and broadcast have
// already seen it.
type Dispatcher struct {
	HistoryChan chan domain.TelemetryRecord
}

func NewDispatcher(size int) *Dispatcher {
	return &Dispatcher{
		HistoryChan: make(chan domain.TelemetryRecord, size),
	}
}

func (d *Dispatcher) Dispatch(rec domain.TelemetryRecord) {
	select {
	case d.HistoryChan <- rec:
	default:
		metrics.HistoryChannelDrops.Add(1)
	}
}

// Close signals the history writer to flush and exit. No Dispatch calls may
// follow.
func (d *Dispatcher) Close() {
	close(d.HistoryChan)
}
