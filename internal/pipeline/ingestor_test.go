package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsync/internal/broadcast"
	"fleetsync/internal/cache"
	"fleetsync/internal/domain"
)

// recordingSink captures every publish and, for telemetry, what the cache
// held for that truck at publish time.
type recordingSink struct {
	cache *cache.StateCache

	mu             sync.Mutex
	telemetry      []domain.TelemetryRecord
	alerts         []domain.AlertEvent
	cacheAtPublish []domain.TelemetryRecord
}

func (s *recordingSink) PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = append(s.telemetry, rec)
	if s.cache != nil {
		s.cacheAtPublish = append(s.cacheAtPublish, s.cache.Snapshot()[rec.TruckID])
	}
	return nil
}

func (s *recordingSink) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, ev)
	return nil
}

func newTestIngestor(c *cache.StateCache, sink broadcast.Sink) (*Ingestor, *Dispatcher) {
	d := NewDispatcher(16)
	return NewIngestor(nil, c, NewEvaluator(), broadcast.New(sink), d), d
}

func payload(t *testing.T, rec domain.TelemetryRecord) []byte {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	return raw
}

func TestProcessUpdatesCacheAndBroadcasts(t *testing.T) {
	c := cache.New()
	sink := &recordingSink{cache: c}
	ing, disp := newTestIngestor(c, sink)

	rec := domain.TelemetryRecord{
		TruckID: "TRUCK-001", Latitude: 40.7, Longitude: -74.0,
		Speed: 55, EngineTemp: 90, FuelLevel: 60, Timestamp: 1700000000000,
	}
	ing.process(context.Background(), payload(t, rec))

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, rec, snap["TRUCK-001"])

	require.Len(t, sink.telemetry, 1)
	assert.Equal(t, rec, sink.telemetry[0])
	assert.Empty(t, sink.alerts)
	assert.Empty(t, c.Alerts())

	// The accepted record was handed to the history path.
	select {
	case got := <-disp.HistoryChan:
		assert.Equal(t, rec, got)
	default:
		t.Fatal("record was not dispatched to history")
	}
}

func TestProcessCacheVisibleBeforeBroadcast(t *testing.T) {
	c := cache.New()
	sink := &recordingSink{cache: c}
	ing, _ := newTestIngestor(c, sink)

	rec := domain.TelemetryRecord{
		TruckID: "TRUCK-002", Speed: 70, EngineTemp: 90, FuelLevel: 50,
		Timestamp: 1700000000001,
	}
	ing.process(context.Background(), payload(t, rec))

	// A subscriber re-querying the cache on push must already see the
	// pushed record.
	require.Len(t, sink.cacheAtPublish, 1)
	assert.Equal(t, rec, sink.cacheAtPublish[0])
}

func TestProcessRaisesAndRecordsAlerts(t *testing.T) {
	c := cache.New()
	sink := &recordingSink{cache: c}
	ing, _ := newTestIngestor(c, sink)

	rec := domain.TelemetryRecord{
		TruckID: "TRUCK-003", Speed: 90, EngineTemp: 110, FuelLevel: 5,
		Timestamp: 1700000000002,
	}
	ing.process(context.Background(), payload(t, rec))

	require.Len(t, sink.alerts, 3)
	assert.Equal(t, domain.AlertSpeeding, sink.alerts[0].Kind)
	assert.Equal(t, domain.AlertOverheating, sink.alerts[1].Kind)
	assert.Equal(t, domain.AlertLowFuel, sink.alerts[2].Kind)

	assert.Equal(t, []string{"TRUCK-003: SPEEDING, OVERHEATING, LOW_FUEL"}, c.Alerts())
}

func TestProcessDropsMalformedPayload(t *testing.T) {
	c := cache.New()
	sink := &recordingSink{cache: c}
	ing, disp := newTestIngestor(c, sink)

	malformed := [][]byte{
		[]byte(`{broken`),
		[]byte(`{"latitude":1,"longitude":2,"speed":3,"engineTemp":4,"fuelLevel":5,"timestamp":6}`),
		[]byte(``),
	}
	for _, raw := range malformed {
		ing.process(context.Background(), raw)
	}

	assert.Empty(t, c.Snapshot())
	assert.Empty(t, c.Alerts())
	assert.Empty(t, sink.telemetry)
	assert.Empty(t, sink.alerts)

	select {
	case <-disp.HistoryChan:
		t.Fatal("malformed payload reached the history path")
	default:
	}
}

func TestRunConsumesUntilChannelCloses(t *testing.T) {
	c := cache.New()
	sink := &recordingSink{cache: c}
	ch := make(chan []byte, 8)
	disp := NewDispatcher(16)
	ing := NewIngestor(ch, c, NewEvaluator(), broadcast.New(sink), disp)

	for i := 0; i < 3; i++ {
		ch <- payload(t, domain.TelemetryRecord{
			TruckID: "TRUCK-00" + string(rune('1'+i)), Speed: 40,
			EngineTemp: 90, FuelLevel: 50, Timestamp: int64(i),
		})
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		ing.Run(context.Background())
		close(done)
	}()
	<-done

	assert.Len(t, c.Snapshot(), 3)
}

func TestDispatchNeverBlocks(t *testing.T) {
	d := NewDispatcher(1)

	// Fill the channel, then keep dispatching; the extra records are
	// dropped from the history path without blocking the caller.
	for i := 0; i < 10; i++ {
		d.Dispatch(domain.TelemetryRecord{TruckID: "TRUCK-001", Timestamp: int64(i)})
	}

	got := <-d.HistoryChan
	assert.Equal(t, int64(0), got.Timestamp)
}
