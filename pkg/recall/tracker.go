// Package recall accumulates part-failure history across the fleet and raises
// manufacturer recall signals once thresholds are crossed.
package recall

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"autoguard/pkg/diagnosis"
	"autoguard/pkg/telemetry"
)

// Risk grades a (manufacturer, part) failure cluster.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Thresholds for manufacturer notification.
const (
	// RecallThreshold is the similar-failure count that triggers an
	// investigation notice.
	RecallThreshold = 3
	// CriticalThreshold is the similar-failure count that triggers immediate
	// action when the new failure is Critical.
	CriticalThreshold = 2
)

// FailureRecord is one reported part failure. Records are append-only and
// never deleted.
type FailureRecord struct {
	VehicleID    string             `json:"vehicle_id"`
	Manufacturer string             `json:"manufacturer"`
	PartType     string             `json:"part_type"`
	Severity     diagnosis.Severity `json:"severity"`
	Description  string             `json:"description"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Notification is an emitted manufacturer alert. It carries the similar-failure
// count and risk as of the emitting report.
type Notification struct {
	Manufacturer    string             `json:"manufacturer"`
	PartType        string             `json:"part_type"`
	Severity        diagnosis.Severity `json:"severity"`
	SimilarFailures int                `json:"similar_failures"`
	Risk            Risk               `json:"recall_risk"`
	Recommendation  string             `json:"recommendation"`
	Timestamp       time.Time          `json:"timestamp"`
}

// Tracker is the shared failure registry. All mutation goes through the mutex
// so threshold checks observe the history including the failure being
// reported.
type Tracker struct {
	mu            sync.Mutex
	failures      []FailureRecord
	notifications []Notification
	now           func() time.Time
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Ordered part classification table; first keyword match wins. Only the first
// issue of a report is classified.
var partRules = []struct {
	keyword string
	part    string
}{
	{"brake", "Brake System"},
	{"engine", "Engine"},
	{"overheating", "Engine"},
	{"battery", "Battery"},
	{"transmission", "Transmission"},
	{"suspension", "Suspension"},
	{"tire", "Tires"},
	{"electrical", "Electrical System"},
}

// ClassifyPart maps an issue description to a part type.
func ClassifyPart(issue string) string {
	lower := strings.ToLower(issue)
	for _, rule := range partRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.part
		}
	}
	return "Other"
}

// ReportFailure records a High or Critical diagnosis against the vehicle's
// manufacturer and returns a Notification when the recall thresholds are
// crossed. Lower severities return nil and leave the registry untouched.
func (t *Tracker) ReportFailure(vehicle telemetry.VehicleInfo, report diagnosis.Report) *Notification {
	if !report.Severity.Actionable() {
		return nil
	}
	if len(report.Issues) == 0 {
		return nil
	}
	firstIssue := report.Issues[0]
	partType := ClassifyPart(firstIssue)
	manufacturer := vehicle.Make
	if manufacturer == "" {
		manufacturer = "Unknown"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures = append(t.failures, FailureRecord{
		VehicleID:    vehicle.VehicleID,
		Manufacturer: manufacturer,
		PartType:     partType,
		Severity:     report.Severity,
		Description:  firstIssue,
		Timestamp:    t.now(),
	})

	similar, critical := t.countSimilarLocked(manufacturer, partType)
	risk := assessRisk(similar, critical)

	if similar >= RecallThreshold || (report.Severity == diagnosis.SeverityCritical && similar >= CriticalThreshold) {
		n := Notification{
			Manufacturer:    manufacturer,
			PartType:        partType,
			Severity:        report.Severity,
			SimilarFailures: similar,
			Risk:            risk,
			Recommendation:  riskRecommendation(risk, similar),
			Timestamp:       t.now(),
		}
		t.notifications = append(t.notifications, n)
		return &n
	}
	return nil
}

func (t *Tracker) countSimilarLocked(manufacturer, partType string) (total, critical int) {
	for _, f := range t.failures {
		if f.Manufacturer == manufacturer && f.PartType == partType {
			total++
			if f.Severity == diagnosis.SeverityCritical {
				critical++
			}
		}
	}
	return total, critical
}

func assessRisk(similar, critical int) Risk {
	switch {
	case critical >= 2 || similar >= 5:
		return RiskHigh
	case similar >= RecallThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func riskRecommendation(risk Risk, similar int) string {
	switch risk {
	case RiskHigh:
		return fmt.Sprintf("URGENT: %d similar failures detected. Immediate recall investigation recommended.", similar)
	case RiskMedium:
		return fmt.Sprintf("WARNING: %d similar failures detected. Monitor closely and consider proactive recall.", similar)
	default:
		return fmt.Sprintf("NOTICE: %d similar failures detected. Continue monitoring.", similar)
	}
}

// NotificationsSent returns all emitted notifications, oldest first.
func (t *Tracker) NotificationsSent() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Notification(nil), t.notifications...)
}

// TotalFailures returns the number of recorded failures.
func (t *Tracker) TotalFailures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.failures)
}

// Failures returns a copy of the failure history.
func (t *Tracker) Failures() []FailureRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]FailureRecord(nil), t.failures...)
}

// ClearOldFailures would prune records older than the retention window.
// Retention is not implemented; the registry is append-only.
func (t *Tracker) ClearOldFailures(days int) int { return 0 }

// sortCandidates orders recall candidates by failure count descending.
func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool { return c[i].FailureCount > c[j].FailureCount })
}
