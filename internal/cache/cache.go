// Package cache holds the in-memory real-time view of the fleet: the latest
// telemetry per truck and a capped, newest-first log of recent alerts.
//
// The cache is the single shared mutable structure in the pipeline. It is
// constructed once at startup and handed to every component that needs it;
// readers always get copies, never references into the live structures.
package cache

import (
	"sync"

	"fleetsync/internal/domain"
)

// AlertLogCapacity bounds the alert log; the oldest entry is evicted when a
// new one would exceed it.
const AlertLogCapacity = 50

// StateCache is safe for arbitrary concurrent writers and readers. Updates
// to different trucks never contend; updates to the same truck are
// last-write-wins by arrival order. An out-of-order record (older timestamp
// than the cached one) still overwrites — this is deliberate, see the
// ordering notes on UpdateTelemetry.
type StateCache struct {
	latest sync.Map // truck id -> domain.TelemetryRecord

	mu     sync.Mutex
	alerts *alertRing
}

func New() *StateCache {
	return &StateCache{alerts: newAlertRing(AlertLogCapacity)}
}

// UpdateTelemetry unconditionally replaces the latest record for the truck.
// No timestamp comparison is made against the previous entry: the bus does
// not guarantee ordered delivery and the pipeline does not try to repair it.
func (c *StateCache) UpdateTelemetry(rec domain.TelemetryRecord) {
	c.latest.Store(rec.TruckID, rec)
}

// RecordAlert inserts a rendered alert line at the front of the log,
// evicting the oldest entry if the log is full. Insert and evict are one
// atomic step; no reader can observe the log above capacity.
func (c *StateCache) RecordAlert(line string) {
	c.mu.Lock()
	c.alerts.push(line)
	c.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the latest-state map. The copy is
// the caller's to keep; later ingestion never mutates it.
func (c *StateCache) Snapshot() map[string]domain.TelemetryRecord {
	out := make(map[string]domain.TelemetryRecord)
	c.latest.Range(func(k, v any) bool {
		out[k.(string)] = v.(domain.TelemetryRecord)
		return true
	})
	return out
}

// Alerts returns a copy of the alert log, newest first, at most
// AlertLogCapacity entries.
func (c *StateCache) Alerts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alerts.snapshot()
}
