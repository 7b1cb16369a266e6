// Package simulator is the synthetic fleet producer: a handful of trucks on
// a bounded random walk, published to the inbound bus channel on a fixed
// interval. It exists outside the pipeline proper; the pipeline treats its
// output like any other producer's.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"fleetsync/internal/domain"
)

// RawPublisher is the producer side of the inbound bus.
type RawPublisher interface {
	PublishRaw(ctx context.Context, payload []byte) error
}

// Walk bounds. Speed and temperature drift within fixed clamps; fuel only
// burns down, faster at higher speed.
const (
	maxSpeed      = 95.0
	minEngineTemp = 70.0
	maxEngineTemp = 115.0
	positionStep  = 0.001
)

// Seed positions around the New York area.
var seedTrucks = []domain.TelemetryRecord{
	{TruckID: "TRUCK-001", Latitude: 40.7128, Longitude: -74.0060, EngineTemp: 80, FuelLevel: 100},
	{TruckID: "TRUCK-002", Latitude: 40.7300, Longitude: -73.9900, EngineTemp: 82, FuelLevel: 90},
	{TruckID: "TRUCK-003", Latitude: 40.7500, Longitude: -73.9800, EngineTemp: 85, FuelLevel: 80},
	{TruckID: "TRUCK-004", Latitude: 40.7800, Longitude: -73.9500, EngineTemp: 78, FuelLevel: 50},
	{TruckID: "TRUCK-005", Latitude: 40.8000, Longitude: -73.9600, EngineTemp: 75, FuelLevel: 15},
}

type Simulator struct {
	pub      RawPublisher
	trucks   []domain.TelemetryRecord
	interval time.Duration
	rng      *rand.Rand
}

func New(pub RawPublisher, trucks int, interval time.Duration) *Simulator {
	s := &Simulator{
		pub:      pub,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for i := 0; i < trucks; i++ {
		seed := seedTrucks[i%len(seedTrucks)]
		seed.TruckID = fmt.Sprintf("TRUCK-%03d", i+1)
		// Spread extra trucks out so they don't stack on the seeds.
		seed.Latitude += float64(i/len(seedTrucks)) * 0.01
		s.trucks = append(s.trucks, seed)
	}

	return s
}

func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("simulator: started", "trucks", len(s.trucks), "interval", s.interval)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)

		case <-ctx.Done():
			slog.Info("simulator: stopped")
			return
		}
	}
}

func (s *Simulator) tick(ctx context.Context) {
	for i := range s.trucks {
		s.Step(&s.trucks[i])

		payload, err := json.Marshal(s.trucks[i])
		if err != nil {
			slog.Error("simulator: marshal failed", "truck", s.trucks[i].TruckID, "err", err)
			continue
		}
		if err := s.pub.PublishRaw(ctx, payload); err != nil {
			slog.Warn("simulator: publish failed", "truck", s.trucks[i].TruckID, "err", err)
		}
	}
}

// Step advances one truck along its random walk. Exported so tests can use
// it as a generator of realistic value distributions.
func (s *Simulator) Step(t *domain.TelemetryRecord) {
	t.Timestamp = time.Now().UnixMilli()

	t.Latitude += (s.rng.Float64() - 0.5) * positionStep
	t.Longitude += (s.rng.Float64() - 0.5) * positionStep

	t.Speed = clamp(t.Speed+(s.rng.Float64()-0.5)*10, 0, maxSpeed)
	t.EngineTemp = clamp(t.EngineTemp+(s.rng.Float64()-0.5)*2, minEngineTemp, maxEngineTemp)

	burn := 0.05 + t.Speed/1000.0
	t.FuelLevel = max(0, t.FuelLevel-burn)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
