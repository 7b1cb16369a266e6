package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsync/internal/domain"
)

type fakeAppender struct {
	mu      sync.Mutex
	batches [][]domain.TelemetryRecord
	fail    int // number of calls to fail before succeeding
}

func (f *fakeAppender) BatchInsert(ctx context.Context, recs []domain.TelemetryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.New("db down")
	}
	batch := make([]domain.TelemetryRecord, len(recs))
	copy(batch, recs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeAppender) all() []domain.TelemetryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TelemetryRecord
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func runWriter(w *HistoryWriter) chan struct{} {
	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	return done
}

func TestHistoryWriterFlushesFullBatch(t *testing.T) {
	ch := make(chan domain.TelemetryRecord, 16)
	store := &fakeAppender{}
	w := NewHistoryWriter(ch, store, 3, 60_000) // ticker effectively disabled

	done := runWriter(w)
	for i := 0; i < 3; i++ {
		ch <- domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: int64(i)}
	}
	close(ch)
	<-done

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 3)
}

func TestHistoryWriterFlushesOnClose(t *testing.T) {
	ch := make(chan domain.TelemetryRecord, 16)
	store := &fakeAppender{}
	w := NewHistoryWriter(ch, store, 100, 60_000)

	done := runWriter(w)
	ch <- domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: 1}
	ch <- domain.TelemetryRecord{TruckID: "TRUCK-002", Timestamp: 2}
	close(ch)
	<-done

	assert.Len(t, store.all(), 2)
}

func TestHistoryWriterFlushesOnTicker(t *testing.T) {
	ch := make(chan domain.TelemetryRecord, 16)
	store := &fakeAppender{}
	w := NewHistoryWriter(ch, store, 100, 10)

	done := runWriter(w)
	ch <- domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: 1}

	assert.Eventually(t, func() bool {
		return len(store.all()) == 1
	}, time.Second, 5*time.Millisecond)

	close(ch)
	<-done
}

func TestHistoryWriterRetriesOnce(t *testing.T) {
	ch := make(chan domain.TelemetryRecord, 16)
	store := &fakeAppender{fail: 1}
	w := NewHistoryWriter(ch, store, 2, 60_000)

	done := runWriter(w)
	ch <- domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: 1}
	ch <- domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: 2}
	close(ch)
	<-done

	// First attempt failed, the retry landed the batch.
	assert.Len(t, store.all(), 2)
}
