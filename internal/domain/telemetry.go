package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TelemetryRecord is one timestamped reading from a truck. Records are
// immutable once decoded; a newer reading for the same truck supersedes the
// previous one, it never mutates it.
type TelemetryRecord struct {
	TruckID    string  `json:"truckId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`      // mph
	EngineTemp float64 `json:"engineTemp"` // Celsius
	FuelLevel  float64 `json:"fuelLevel"`  // percentage, producers may exceed [0,100]
	Timestamp  int64   `json:"timestamp"`  // unix millis, producer-assigned
}

type AlertKind string

const (
	AlertSpeeding    AlertKind = "SPEEDING"
	AlertOverheating AlertKind = "OVERHEATING"
	AlertLowFuel     AlertKind = "LOW_FUEL"
)

// AlertEvent is a threshold violation derived from a single record.
type AlertEvent struct {
	TruckID   string    `json:"truckId"`
	Kind      AlertKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

// Alert thresholds. Fixed for the whole process lifetime.
const (
	SpeedLimit      = 80.0
	EngineTempLimit = 100.0
	FuelReserve     = 10.0
)

type AlertRule struct {
	Kind      AlertKind
	Triggered func(r *TelemetryRecord) bool
	Message   func(r *TelemetryRecord) string
}

// DefaultAlertRules are evaluated independently; a single record may trip
// any subset of them. Order here fixes the order of emitted alerts.
var DefaultAlertRules = []AlertRule{
	{
		Kind: AlertSpeeding,
		Triggered: func(r *TelemetryRecord) bool {
			return r.Speed > SpeedLimit
		},
		Message: func(r *TelemetryRecord) string {
			return fmt.Sprintf("%s is speeding at %.1f mph", r.TruckID, r.Speed)
		},
	},
	{
		Kind: AlertOverheating,
		Triggered: func(r *TelemetryRecord) bool {
			return r.EngineTemp > EngineTempLimit
		},
		Message: func(r *TelemetryRecord) string {
			return fmt.Sprintf("%s engine temperature at %.1f C", r.TruckID, r.EngineTemp)
		},
	},
	{
		Kind: AlertLowFuel,
		Triggered: func(r *TelemetryRecord) bool {
			return r.FuelLevel < FuelReserve
		},
		Message: func(r *TelemetryRecord) string {
			return fmt.Sprintf("%s fuel level at %.1f%%", r.TruckID, r.FuelLevel)
		},
	},
}

// RenderAlerts joins the kinds raised by one record into the log line format
// the dashboard shows, e.g. "TRUCK-001: SPEEDING, LOW_FUEL".
func RenderAlerts(truckID string, alerts []AlertEvent) string {
	kinds := make([]string, len(alerts))
	for i, a := range alerts {
		kinds[i] = string(a.Kind)
	}
	return truckID + ": " + strings.Join(kinds, ", ")
}

// wireTelemetry mirrors the inbound JSON shape with pointer fields so that
// an absent field is distinguishable from a zero value.
type wireTelemetry struct {
	TruckID    *string  `json:"truckId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Speed      *float64 `json:"speed"`
	EngineTemp *float64 `json:"engineTemp"`
	FuelLevel  *float64 `json:"fuelLevel"`
	Timestamp  *int64   `json:"timestamp"`
}

// DecodeTelemetry parses an inbound payload. All seven fields are required;
// anything missing or unparsable is an error and the message is dropped by
// the caller without touching the cache.
func DecodeTelemetry(raw []byte) (TelemetryRecord, error) {
	var w wireTelemetry
	if err := json.Unmarshal(raw, &w); err != nil {
		return TelemetryRecord{}, fmt.Errorf("invalid telemetry payload: %w", err)
	}

	switch {
	case w.TruckID == nil || *w.TruckID == "":
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing truckId")
	case w.Latitude == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing latitude")
	case w.Longitude == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing longitude")
	case w.Speed == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing speed")
	case w.EngineTemp == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing engineTemp")
	case w.FuelLevel == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing fuelLevel")
	case w.Timestamp == nil:
		return TelemetryRecord{}, fmt.Errorf("telemetry payload missing timestamp")
	}

	return TelemetryRecord{
		TruckID:    *w.TruckID,
		Latitude:   *w.Latitude,
		Longitude:  *w.Longitude,
		Speed:      *w.Speed,
		EngineTemp: *w.EngineTemp,
		FuelLevel:  *w.FuelLevel,
		Timestamp:  *w.Timestamp,
	}, nil
}
