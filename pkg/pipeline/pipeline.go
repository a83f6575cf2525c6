// Package pipeline sequences one diagnostic run: security gating, telemetry
// monitoring, diagnosis, recall pattern tracking, and conditional customer
// notification.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"autoguard/pkg/advisor"
	"autoguard/pkg/diagnosis"
	"autoguard/pkg/eventbus"
	"autoguard/pkg/logging"
	"autoguard/pkg/metrics"
	"autoguard/pkg/recall"
	"autoguard/pkg/store"
	"autoguard/pkg/telemetry"
	"autoguard/pkg/ueba"
)

// State names the orchestrator's stages.
type State string

const (
	StateSecurityCheck State = "security_check"
	StateMonitor       State = "monitor"
	StateDiagnose      State = "diagnose"
	StatePatternTrack  State = "pattern_track"
	StateNotify        State = "notify"
	StateEnd           State = "end"
)

// Result is the full state snapshot of one finished run. A blocked run
// carries only the block marker and the triggering threat.
type Result struct {
	RunID           string               `json:"run_id"`
	VehicleID       string               `json:"vehicle_id"`
	UserID          string               `json:"user_id"`
	Blocked         bool                 `json:"blocked"`
	Severity        diagnosis.Severity   `json:"severity,omitempty"`
	Issues          []string             `json:"issues,omitempty"`
	Report          *diagnosis.Report    `json:"diagnosis_report,omitempty"`
	Notification    *recall.Notification `json:"recall_notification,omitempty"`
	Threat          *ueba.Threat         `json:"security_threat,omitempty"`
	CustomerMessage string               `json:"customer_message,omitempty"`
	Messages        []string             `json:"messages,omitempty"`
	Path            []State              `json:"path"`
}

// Engine drives the state machine over its injected collaborators. Engines
// are safe for concurrent runs; the shared registries serialize internally.
type Engine struct {
	detector *ueba.Detector
	tracker  *recall.Tracker
	source   telemetry.Source
	owners   telemetry.Directory
	composer advisor.Composer
	fallback advisor.TemplateComposer
	sink     store.Sink
	bus      eventbus.Publisher
	metrics  *metrics.Set
}

// Config wires an Engine. Detector, Tracker, and Source are required; the
// rest degrade gracefully when nil.
type Config struct {
	Detector *ueba.Detector
	Tracker  *recall.Tracker
	Source   telemetry.Source
	Owners   telemetry.Directory
	Composer advisor.Composer
	Sink     store.Sink
	Bus      eventbus.Publisher
	Metrics  *metrics.Set
}

// NewEngine constructs an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		detector: cfg.Detector,
		tracker:  cfg.Tracker,
		source:   cfg.Source,
		owners:   cfg.Owners,
		composer: cfg.Composer,
		sink:     cfg.Sink,
		bus:      cfg.Bus,
		metrics:  cfg.Metrics,
	}
	if e.composer == nil {
		e.composer = advisor.TemplateComposer{}
	}
	return e
}

// run is the per-run scratchpad threading data between stages. It is created
// at run start and discarded at run end; never shared across runs.
type run struct {
	res      *Result
	snapshot telemetry.Snapshot
	history  telemetry.MaintenanceHistory
}

// Run executes the state machine for one vehicle and acting user. It always
// reaches the terminal state exactly once and never returns a partial result:
// failures along the way degrade to defaults or missing optional fields.
func (e *Engine) Run(ctx context.Context, vehicleID, userID string) *Result {
	start := time.Now()
	r := &run{res: &Result{
		RunID:     uuid.NewString(),
		VehicleID: vehicleID,
		UserID:    userID,
	}}

	state := StateSecurityCheck
	for state != StateEnd {
		r.res.Path = append(r.res.Path, state)
		switch state {
		case StateSecurityCheck:
			state = e.securityCheck(ctx, r)
		case StateMonitor:
			state = e.monitor(ctx, r)
		case StateDiagnose:
			state = e.diagnose(ctx, r)
		case StatePatternTrack:
			state = e.patternTrack(ctx, r)
		case StateNotify:
			state = e.notify(ctx, r)
		default:
			state = StateEnd
		}
	}
	r.res.Path = append(r.res.Path, StateEnd)

	if e.metrics != nil {
		outcome := "completed"
		if r.res.Blocked {
			outcome = "blocked"
		}
		e.metrics.RunsTotal.WithLabelValues(outcome).Inc()
		e.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
	return r.res
}

// securityCheck logs the diagnostic action and hard-stops the run when the
// acting user is blocked.
func (e *Engine) securityCheck(ctx context.Context, r *run) State {
	threat := e.detector.LogActivity(r.res.UserID, "run_diagnostics", map[string]any{
		"vehicle_id": r.res.VehicleID,
	})
	if threat != nil {
		r.res.Threat = threat
		logging.Warnf("[pipeline] threat detected user=%s type=%q severity=%s", threat.UserID, threat.Type, threat.Severity)
		if e.metrics != nil {
			e.metrics.ThreatsTotal.WithLabelValues(threat.Type).Inc()
		}
		e.publish(ctx, eventbus.TypeThreatDetected, threat)
	}
	if e.detector.IsBlocked(r.res.UserID) {
		r.res.Blocked = true
		logging.Warnf("[pipeline] run %s blocked for user %s", r.res.RunID, r.res.UserID)
		e.publish(ctx, eventbus.TypeUserBlocked, map[string]any{"user_id": r.res.UserID, "run_id": r.res.RunID})
		return StateEnd
	}
	return StateMonitor
}

// monitor fetches telemetry. Fetch failures degrade to the empty snapshot so
// the evaluator's defaults apply.
func (e *Engine) monitor(ctx context.Context, r *run) State {
	snapshot, history, err := e.source.GetTelemetry(ctx, r.res.VehicleID)
	if err != nil {
		logging.Errorf("[pipeline] telemetry fetch for %s failed, using defaults: %v", r.res.VehicleID, err)
		if e.metrics != nil {
			e.metrics.TelemetryFetchErrors.Inc()
		}
		return StateDiagnose
	}
	r.snapshot = snapshot
	r.history = history
	return StateDiagnose
}

// diagnose evaluates the telemetry and persists the report.
func (e *Engine) diagnose(ctx context.Context, r *run) State {
	report := diagnosis.Evaluate(r.snapshot, r.history)
	report.VehicleID = r.res.VehicleID
	r.res.Report = &report
	r.res.Severity = report.Severity
	r.res.Issues = report.Issues

	if e.sink != nil {
		raw, err := json.Marshal(report)
		if err != nil {
			raw = nil
		}
		if err := e.sink.SaveDiagnostic(ctx, store.DiagnosticRecord{
			VehicleID:  report.VehicleID,
			Severity:   string(report.Severity),
			Issues:     report.Issues,
			ReportJSON: raw,
			UserID:     r.res.UserID,
		}); err != nil {
			logging.Errorf("[pipeline] save diagnostic for %s: %v", report.VehicleID, err)
		}
	}
	e.publish(ctx, eventbus.TypeDiagnosticCompleted, report)
	return StatePatternTrack
}

// patternTrack always reports to the recall tracker; the High/Critical gate
// lives inside the tracker.
func (e *Engine) patternTrack(ctx context.Context, r *run) State {
	vehicle := telemetry.VehicleInfo{VehicleID: r.res.VehicleID}
	if e.owners != nil {
		if v, err := e.owners.GetVehicle(ctx, r.res.VehicleID); err != nil {
			logging.Errorf("[pipeline] vehicle lookup for %s: %v", r.res.VehicleID, err)
		} else if v != nil {
			vehicle = *v
		}
	}

	if n := e.tracker.ReportFailure(vehicle, *r.res.Report); n != nil {
		r.res.Notification = n
		logging.Infof("[pipeline] recall notification manufacturer=%s part=%q risk=%s", n.Manufacturer, n.PartType, n.Risk)
		if e.metrics != nil {
			e.metrics.RecallNotifications.Inc()
		}
		e.publish(ctx, eventbus.TypeRecallNotified, n)
	}

	if r.res.Severity.Actionable() {
		return StateNotify
	}
	return StateEnd
}

// notify composes and persists the customer alert. Composer failures fall
// back to the deterministic template and never abort the run.
func (e *Engine) notify(ctx context.Context, r *run) State {
	ownerName := "Valued Customer"
	if e.owners != nil {
		if owner, err := e.owners.GetOwner(ctx, r.res.VehicleID); err != nil {
			logging.Errorf("[pipeline] owner lookup for %s: %v", r.res.VehicleID, err)
		} else if owner != nil && owner.Name != "" {
			ownerName = owner.Name
		}
	}

	source := "primary"
	msg, err := e.composer.ComposeAlert(ctx, *r.res.Report, r.res.VehicleID, ownerName)
	if err != nil {
		source = "fallback"
		msg, _ = e.fallback.ComposeAlert(ctx, *r.res.Report, r.res.VehicleID, ownerName)
	}
	if e.metrics != nil {
		e.metrics.AlertsComposed.WithLabelValues(source).Inc()
	}

	r.res.CustomerMessage = msg
	r.res.Messages = append(r.res.Messages, msg)

	if e.sink != nil {
		if err := e.sink.SaveMessage(ctx, store.Message{
			VehicleID: r.res.VehicleID,
			Role:      "assistant",
			Body:      msg,
			Metadata:  map[string]any{"severity": string(r.res.Severity)},
		}); err != nil {
			logging.Errorf("[pipeline] save message for %s: %v", r.res.VehicleID, err)
		}
	}
	return StateEnd
}

func (e *Engine) publish(ctx context.Context, eventType string, payload any) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, eventbus.Event{Type: eventType, Source: "pipeline", Payload: payload}); err != nil {
		logging.Errorf("[pipeline] publish %s: %v", eventType, err)
	}
}
