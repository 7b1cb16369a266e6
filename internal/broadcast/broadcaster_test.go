package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetsync/internal/domain"
)

type countingSink struct {
	telemetry int
	alerts    int
	err       error
}

func (s *countingSink) PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) error {
	s.telemetry++
	return s.err
}

func (s *countingSink) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	s.alerts++
	return s.err
}

func TestBroadcasterFansOutToAllSinks(t *testing.T) {
	first := &countingSink{}
	second := &countingSink{}
	b := New(first, second)

	b.PublishTelemetry(context.Background(), domain.TelemetryRecord{TruckID: "T"})
	b.PublishAlert(context.Background(), domain.AlertEvent{TruckID: "T"})

	assert.Equal(t, 1, first.telemetry)
	assert.Equal(t, 1, second.telemetry)
	assert.Equal(t, 1, first.alerts)
	assert.Equal(t, 1, second.alerts)
}

func TestBroadcasterSwallowsSinkFailures(t *testing.T) {
	failing := &countingSink{err: errors.New("transport down")}
	healthy := &countingSink{}
	b := New(failing, healthy)

	// A dead sink must not stop delivery to the others, and nothing
	// propagates back to the caller.
	b.PublishTelemetry(context.Background(), domain.TelemetryRecord{TruckID: "T"})
	b.PublishAlert(context.Background(), domain.AlertEvent{TruckID: "T"})

	assert.Equal(t, 1, healthy.telemetry)
	assert.Equal(t, 1, healthy.alerts)
}

func TestBroadcasterWithNoSinks(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.PublishTelemetry(context.Background(), domain.TelemetryRecord{TruckID: "T"})
	})
}
