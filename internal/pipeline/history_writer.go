package pipeline

import (
	"context"
	"log/slog"
	"time"

	"fleetsync/internal/domain"
	"fleetsync/internal/metrics"
)

// TelemetryAppender is the append side of the external history store.
type TelemetryAppender interface {
	BatchInsert(ctx context.Context, recs []domain.TelemetryRecord) error
}

// HistoryWriter batches accepted records and appends them to the external
// store. Storage is a one-way street: nothing here is ever read back by the
// pipeline, and a write failure never reaches the ingestion path.
type HistoryWriter struct {
	ch        <-chan domain.TelemetryRecord
	store     TelemetryAppender
	batchSize int
	flushMS   int
}

func NewHistoryWriter(
	ch <-chan domain.TelemetryRecord,
	store TelemetryAppender,
	batchSize int,
	flushMS int,
) *HistoryWriter {
	return &HistoryWriter{
		ch:        ch,
		store:     store,
		batchSize: batchSize,
		flushMS:   flushMS,
	}
}

func (w *HistoryWriter) Run(ctx context.Context) {
	batch := make([]domain.TelemetryRecord, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case rec, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(ctx, batch)
				}
				return
			}
			batch = append(batch, rec)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(ctx, batch)
			}
			return
		}
	}
}

func (w *HistoryWriter) flush(ctx context.Context, batch []domain.TelemetryRecord) {
	err := w.store.BatchInsert(ctx, batch)
	if err != nil {
		slog.Warn("history: write failed, retrying", "batch", len(batch), "err", err)
		time.Sleep(500 * time.Millisecond)
		err = w.store.BatchInsert(ctx, batch)
		if err != nil {
			slog.Error("history: write permanently failed", "batch", len(batch), "err", err)
			metrics.HistoryWriteFailures.Add(int64(len(batch)))
			return
		}
	}
	metrics.HistoryWriteSuccess.Add(int64(len(batch)))
}
