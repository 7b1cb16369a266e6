// Package stats derives fleet-wide aggregates from a cache snapshot.
package stats

import (
	"math"

	"fleetsync/internal/cache"
)

type FleetStats struct {
	ActiveTrucks      int     `json:"activeTrucks"`
	AverageSpeed      float64 `json:"averageSpeed"`
	AverageEngineTemp float64 `json:"averageEngineTemp"`
	AverageFuelLevel  float64 `json:"averageFuelLevel"`
}

// Aggregator computes statistics over the current cache contents. It only
// ever reads; each Compute call takes exactly one snapshot.
type Aggregator struct {
	cache *cache.StateCache
}

func New(c *cache.StateCache) *Aggregator {
	return &Aggregator{cache: c}
}

func (a *Aggregator) Compute() FleetStats {
	fleet := a.cache.Snapshot()
	if len(fleet) == 0 {
		return FleetStats{}
	}

	var speed, temp, fuel float64
	for _, rec := range fleet {
		speed += rec.Speed
		temp += rec.EngineTemp
		fuel += rec.FuelLevel
	}

	n := float64(len(fleet))
	return FleetStats{
		ActiveTrucks:      len(fleet),
		AverageSpeed:      round1(speed / n),
		AverageEngineTemp: round1(temp / n),
		AverageFuelLevel:  round1(fuel / n),
	}
}

// round1 rounds half-up at one decimal place: 66.65 -> 66.7, 66.649 -> 66.6.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
