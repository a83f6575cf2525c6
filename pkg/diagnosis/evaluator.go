// Package diagnosis maps raw telemetry to a severity grade and issue list.
// Evaluate is a pure function: same inputs, same report, no I/O.
package diagnosis

import (
	"fmt"

	"autoguard/pkg/telemetry"
)

// Report is the outcome of one evaluation. It is never mutated after Evaluate
// returns. Confidence and recommendation belong to the first rule that raised
// severity, not necessarily the worst one; that ordering is part of the
// contract.
type Report struct {
	VehicleID      string   `json:"vehicle_id"`
	Severity       Severity `json:"severity"`
	Issues         []string `json:"issues"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
}

// Defaults applied when a telemetry field is absent.
const (
	defaultBrakePadMM     = 10.0
	defaultCoolantTempC   = 90.0
	defaultEngineLoadPct  = 30.0
	defaultBatteryVoltage = 13.5
)

// readings is the snapshot with defaults resolved, so rules never see an
// absent field.
type readings struct {
	brakePadMM     float64
	coolantTempC   float64
	engineLoadPct  float64
	batteryVoltage float64
	kmSinceService int
	repairsLast12M int
}

// rule is one ordered evaluation step. Rules append issues and may escalate
// severity; they never downgrade it.
type rule struct {
	name  string
	apply func(in readings, r *Report)
}

// Ordered rule table. Declaration order is load-bearing: issues accumulate in
// this order and the first escalation fixes confidence and recommendation.
var rules = []rule{
	{
		name: "critical_brake_wear",
		apply: func(in readings, r *Report) {
			if in.brakePadMM < 3.0 {
				r.Issues = append(r.Issues, fmt.Sprintf("Critical Brake Wear (%.1fmm)", in.brakePadMM))
				r.Severity = SeverityCritical
				r.Confidence = 0.99
				r.Recommendation = "Immediate Service Booking Required. Do not drive."
			}
		},
	},
	{
		name: "engine_overheating",
		apply: func(in readings, r *Report) {
			if in.coolantTempC > 105 && in.engineLoadPct > 80 {
				r.Issues = append(r.Issues, fmt.Sprintf("Engine Overheating Risk (Temp: %.1fC, Load: %.0f%%)", in.coolantTempC, in.engineLoadPct))
				if r.Severity != SeverityCritical {
					r.Severity = SeverityHigh
					r.Confidence = 0.85
					r.Recommendation = "Check coolant levels and radiator immediately."
				}
			}
		},
	},
	{
		name: "low_battery_voltage",
		apply: func(in readings, r *Report) {
			if in.batteryVoltage < 12.0 {
				r.Issues = append(r.Issues, fmt.Sprintf("Low Battery Voltage (%.1fV)", in.batteryVoltage))
				if r.Severity != SeverityCritical && r.Severity != SeverityHigh {
					r.Severity = SeverityMedium
					r.Recommendation = "Schedule battery inspection."
				}
			}
		},
	},
	{
		name: "maintenance_overdue",
		apply: func(in readings, r *Report) {
			if in.kmSinceService > 15000 || in.repairsLast12M > 3 {
				r.Issues = append(r.Issues, fmt.Sprintf("Maintenance Overdue (+%dkm since service)", in.kmSinceService))
				if r.Severity == SeverityNormal {
					r.Severity = SeverityLow
					r.Recommendation = "Book routine maintenance soon."
				}
			}
		},
	},
}

// Evaluate runs the ordered rule table over one telemetry snapshot. It is
// total: absent readings fall back to defaults and no input panics.
func Evaluate(snapshot telemetry.Snapshot, history telemetry.MaintenanceHistory) Report {
	in := readings{
		brakePadMM:     orDefault(snapshot.BrakePadThicknessMM, defaultBrakePadMM),
		coolantTempC:   orDefault(snapshot.CoolantTempC, defaultCoolantTempC),
		engineLoadPct:  orDefault(snapshot.EngineLoadPct, defaultEngineLoadPct),
		batteryVoltage: orDefault(snapshot.BatteryVoltageV, defaultBatteryVoltage),
		kmSinceService: history.KMSinceLastService,
		repairsLast12M: history.NumRepairsLast12M,
	}

	r := Report{
		Severity:       SeverityNormal,
		Confidence:     1.0,
		Recommendation: "No action needed.",
	}
	for _, rule := range rules {
		rule.apply(in, &r)
	}
	return r
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
