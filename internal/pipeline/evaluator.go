package pipeline

import (
	"fleetsync/internal/domain"
)

// Evaluator turns a telemetry record into zero or more alert events. It is
// pure: no cache access, no publishing, deterministic for a given record.
// The caller decides what to do with the result.
type Evaluator struct {
	rules []domain.AlertRule
}

func NewEvaluator() *Evaluator {
	return &Evaluator{rules: domain.DefaultAlertRules}
}

// Evaluate checks every rule independently; a single record can raise up to
// one alert per rule, emitted in rule order. The alert carries the record's
// own timestamp so evaluation stays deterministic.
func (e *Evaluator) Evaluate(rec *domain.TelemetryRecord) []domain.AlertEvent {
	var alerts []domain.AlertEvent
	for _, rule := range e.rules {
		if !rule.Triggered(rec) {
			continue
		}
		alerts = append(alerts, domain.AlertEvent{
			TruckID:   rec.TruckID,
			Kind:      rule.Kind,
			Message:   rule.Message(rec),
			Timestamp: rec.Timestamp,
		})
	}
	return alerts
}
