package recall

import (
	"strings"
	"testing"
	"time"

	"autoguard/pkg/diagnosis"
	"autoguard/pkg/telemetry"
)

func vehicle(id, mfr string) telemetry.VehicleInfo {
	return telemetry.VehicleInfo{VehicleID: id, Make: mfr, Model: "X", Year: 2022}
}

func highReport(issue string) diagnosis.Report {
	return diagnosis.Report{Severity: diagnosis.SeverityHigh, Issues: []string{issue}}
}

func criticalReport(issue string) diagnosis.Report {
	return diagnosis.Report{Severity: diagnosis.SeverityCritical, Issues: []string{issue}}
}

func TestClassifyPart(t *testing.T) {
	cases := []struct {
		issue string
		want  string
	}{
		{"Critical Brake Wear (2.1mm)", "Brake System"},
		{"Engine Overheating Risk (Temp: 110.0C, Load: 85%)", "Engine"},
		{"Overheating detected", "Engine"},
		{"Low Battery Voltage (11.5V)", "Battery"},
		{"Transmission slipping", "Transmission"},
		{"Suspension knock", "Suspension"},
		{"Tire pressure loss", "Tires"},
		{"Electrical fault in dash", "Electrical System"},
		{"Windshield crack", "Other"},
		{"BRAKE noise", "Brake System"},
	}
	for _, tc := range cases {
		if got := ClassifyPart(tc.issue); got != tc.want {
			t.Errorf("ClassifyPart(%q) = %q, want %q", tc.issue, got, tc.want)
		}
	}
}

func TestReportFailureIgnoresNonActionable(t *testing.T) {
	tr := NewTracker()
	for _, sev := range []diagnosis.Severity{diagnosis.SeverityNormal, diagnosis.SeverityLow, diagnosis.SeverityMedium} {
		n := tr.ReportFailure(vehicle("V1", "Toyonda"), diagnosis.Report{Severity: sev, Issues: []string{"Low Battery Voltage (11.5V)"}})
		if n != nil {
			t.Errorf("severity %s must not register, got %+v", sev, n)
		}
	}
	if tr.ReportFailure(vehicle("V1", "Toyonda"), diagnosis.Report{Severity: diagnosis.SeverityHigh}) != nil {
		t.Error("empty issue list must not register")
	}
	if tr.TotalFailures() != 0 {
		t.Errorf("registry should be empty, has %d", tr.TotalFailures())
	}
}

func TestReportFailureThirdSimilarNotifies(t *testing.T) {
	tr := NewTracker()
	for i, id := range []string{"V1", "V2"} {
		if n := tr.ReportFailure(vehicle(id, "Toyonda"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)")); n != nil {
			t.Fatalf("failure %d should not notify, got %+v", i+1, n)
		}
	}
	n := tr.ReportFailure(vehicle("V3", "Toyonda"), highReport("Engine Overheating Risk (Temp: 108.0C, Load: 82%)"))
	if n == nil {
		t.Fatal("third similar failure must notify")
	}
	if n.SimilarFailures != 3 {
		t.Errorf("similar = %d, want 3 (count includes the current failure)", n.SimilarFailures)
	}
	if n.Risk != RiskMedium {
		t.Errorf("risk = %s, want MEDIUM", n.Risk)
	}
	if !strings.HasPrefix(n.Recommendation, "WARNING: 3 similar failures") {
		t.Errorf("recommendation = %q", n.Recommendation)
	}
}

func TestReportFailureSecondCriticalNotifies(t *testing.T) {
	tr := NewTracker()
	if n := tr.ReportFailure(vehicle("V1", "Nissota"), criticalReport("Critical Brake Wear (2.1mm)")); n != nil {
		t.Fatalf("first critical should not notify, got %+v", n)
	}
	n := tr.ReportFailure(vehicle("V2", "Nissota"), criticalReport("Critical Brake Wear (1.8mm)"))
	if n == nil {
		t.Fatal("second critical failure must notify via the critical threshold")
	}
	if n.SimilarFailures != 2 {
		t.Errorf("similar = %d, want 2", n.SimilarFailures)
	}
	if n.Risk != RiskHigh {
		t.Errorf("risk = %s, want HIGH (two criticals)", n.Risk)
	}
	if !strings.HasPrefix(n.Recommendation, "URGENT:") {
		t.Errorf("recommendation = %q", n.Recommendation)
	}
}

func TestReportFailureSeparatesManufacturers(t *testing.T) {
	tr := NewTracker()
	tr.ReportFailure(vehicle("V1", "Toyonda"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)"))
	tr.ReportFailure(vehicle("V2", "Nissota"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)"))
	if n := tr.ReportFailure(vehicle("V3", "Mazfia"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)")); n != nil {
		t.Errorf("failures across manufacturers must not pool, got %+v", n)
	}
}

func TestReportFailureClassifiesFirstIssueOnly(t *testing.T) {
	tr := NewTracker()
	report := diagnosis.Report{
		Severity: diagnosis.SeverityCritical,
		Issues:   []string{"Critical Brake Wear (2.1mm)", "Low Battery Voltage (11.0V)"},
	}
	tr.ReportFailure(vehicle("V1", "Toyonda"), report)
	failures := tr.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].PartType != "Brake System" {
		t.Errorf("part = %q, want Brake System (first issue wins)", failures[0].PartType)
	}
}

func TestReportFailureUnknownManufacturer(t *testing.T) {
	tr := NewTracker()
	tr.ReportFailure(telemetry.VehicleInfo{VehicleID: "V1"}, criticalReport("Critical Brake Wear (2.1mm)"))
	if got := tr.Failures()[0].Manufacturer; got != "Unknown" {
		t.Errorf("manufacturer = %q, want Unknown", got)
	}
}

func TestAssessRisk(t *testing.T) {
	cases := []struct {
		similar, critical int
		want              Risk
	}{
		{1, 0, RiskLow},
		{2, 1, RiskLow},
		{3, 0, RiskMedium},
		{4, 1, RiskMedium},
		{2, 2, RiskHigh},
		{5, 0, RiskHigh},
	}
	for _, tc := range cases {
		if got := assessRisk(tc.similar, tc.critical); got != tc.want {
			t.Errorf("assessRisk(%d, %d) = %s, want %s", tc.similar, tc.critical, got, tc.want)
		}
	}
}

func TestFailuresByManufacturer(t *testing.T) {
	tr := NewTracker()
	tr.ReportFailure(vehicle("V1", "Toyonda"), criticalReport("Critical Brake Wear (2.1mm)"))
	tr.ReportFailure(vehicle("V2", "Toyonda"), criticalReport("Critical Brake Wear (2.0mm)"))
	tr.ReportFailure(vehicle("V3", "Toyonda"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)"))
	tr.ReportFailure(vehicle("V4", "Nissota"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)"))

	stats := tr.FailuresByManufacturer()
	toy := stats["Toyonda"]
	if toy.Total != 3 || toy.Critical != 2 || toy.High != 1 {
		t.Errorf("Toyonda stats = %+v", toy)
	}
	if toy.ByPart["Brake System"] != 2 || toy.ByPart["Engine"] != 1 {
		t.Errorf("Toyonda by-part = %v", toy.ByPart)
	}
	// score = (2*3 + 1*2) / 3 ≈ 2.67
	if toy.AvgSeverity != "High" {
		t.Errorf("Toyonda avg severity = %q, want High", toy.AvgSeverity)
	}
	if nis := stats["Nissota"]; nis.AvgSeverity != "Low" || nis.Total != 1 {
		t.Errorf("Nissota stats = %+v", nis)
	}
}

func TestRecallCandidates(t *testing.T) {
	tr := NewTracker()
	// Below threshold: not a candidate.
	tr.ReportFailure(vehicle("V1", "Nissota"), highReport("Engine Overheating Risk (Temp: 110.0C, Load: 85%)"))
	// Four brake failures, two of them critical.
	tr.ReportFailure(vehicle("V2", "Toyonda"), criticalReport("Critical Brake Wear (2.1mm)"))
	tr.ReportFailure(vehicle("V3", "Toyonda"), criticalReport("Critical Brake Wear (1.9mm)"))
	tr.ReportFailure(vehicle("V4", "Toyonda"), highReport("Brake response degraded"))
	tr.ReportFailure(vehicle("V5", "Toyonda"), highReport("Brake response degraded"))

	candidates := tr.RecallCandidates()
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Manufacturer != "Toyonda" || c.PartType != "Brake System" {
		t.Fatalf("candidate = %+v", c)
	}
	if c.FailureCount != 4 || c.CriticalCount != 2 {
		t.Errorf("counts = %d/%d, want 4/2", c.FailureCount, c.CriticalCount)
	}
	if c.Severity != diagnosis.SeverityCritical {
		t.Errorf("severity = %s, want critical (two criticals in cluster)", c.Severity)
	}
	if c.Risk != RiskHigh {
		t.Errorf("risk = %s, want HIGH", c.Risk)
	}
}

func TestIdentifyPattern(t *testing.T) {
	shared := []FailureRecord{
		{Description: "Critical Brake Wear (2.1mm)", PartType: "Brake System"},
		{Description: "Critical Brake Wear (1.9mm)", PartType: "Brake System"},
	}
	if got := identifyPattern(shared); !strings.HasPrefix(got, "Common issue:") {
		t.Errorf("pattern = %q, want common-issue prefix", got)
	}
	disjoint := []FailureRecord{
		{Description: "alpha beta", PartType: "Engine"},
		{Description: "gamma delta", PartType: "Engine"},
	}
	if got := identifyPattern(disjoint); got != "Multiple failures reported for Engine" {
		t.Errorf("pattern = %q", got)
	}
	if got := identifyPattern(nil); got != "No pattern identified" {
		t.Errorf("pattern for empty cluster = %q", got)
	}
}

func TestNotificationTimestampUsesClock(t *testing.T) {
	tr := NewTracker()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.ReportFailure(vehicle("V1", "Toyonda"), criticalReport("Critical Brake Wear (2.1mm)"))
	n := tr.ReportFailure(vehicle("V2", "Toyonda"), criticalReport("Critical Brake Wear (2.0mm)"))
	if n == nil {
		t.Fatal("expected notification")
	}
	if !n.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", n.Timestamp, fixed)
	}
}
