package advisor

import (
	"context"
	"strings"
	"testing"

	"autoguard/pkg/diagnosis"
)

func TestTemplateComposerCritical(t *testing.T) {
	report := diagnosis.Report{
		Severity:       diagnosis.SeverityCritical,
		Issues:         []string{"Critical Brake Wear (2.1mm)", "Low Battery Voltage (11.0V)"},
		Recommendation: "Immediate Service Booking Required. Do not drive.",
	}
	msg, err := TemplateComposer{}.ComposeAlert(context.Background(), report, "VIN-001", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"CRITICAL ALERT for Alice",
		"(VIN-001)",
		"- Critical Brake Wear (2.1mm)",
		"- Low Battery Voltage (11.0V)",
		"Recommendation: Immediate Service Booking Required. Do not drive.",
		"- AutoGuard Support Team",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestTemplateComposerGreetings(t *testing.T) {
	cases := []struct {
		severity diagnosis.Severity
		want     string
	}{
		{diagnosis.SeverityCritical, "CRITICAL ALERT for Bob"},
		{diagnosis.SeverityHigh, "Important Notice for Bob"},
		{diagnosis.SeverityMedium, "Hello Bob"},
		{diagnosis.SeverityNormal, "Hello Bob"},
	}
	for _, tc := range cases {
		msg, _ := TemplateComposer{}.ComposeAlert(context.Background(), diagnosis.Report{Severity: tc.severity}, "V1", "Bob")
		if !strings.HasPrefix(msg, tc.want) {
			t.Errorf("severity %s: greeting = %q, want prefix %q", tc.severity, strings.SplitN(msg, ",", 2)[0], tc.want)
		}
	}
}

func TestTemplateComposerDefaults(t *testing.T) {
	msg, _ := TemplateComposer{}.ComposeAlert(context.Background(), diagnosis.Report{Severity: diagnosis.SeverityHigh}, "V1", "")
	if !strings.Contains(msg, "Important Notice for Valued Customer") {
		t.Errorf("missing default owner name:\n%s", msg)
	}
	if !strings.Contains(msg, "General maintenance required") {
		t.Errorf("missing issue fallback:\n%s", msg)
	}
	if !strings.Contains(msg, "Recommendation: Please contact service.") {
		t.Errorf("missing recommendation fallback:\n%s", msg)
	}
}

func TestResponderIntents(t *testing.T) {
	critical := &diagnosis.Report{
		Severity: diagnosis.SeverityCritical,
		Issues:   []string{"Critical Brake Wear (2.1mm)"},
	}
	cases := []struct {
		name    string
		message string
		ctx     ReplyContext
		want    string
	}{
		{"booking", "Please book me in", ReplyContext{}, "scheduled a service appointment"},
		{"explanation with report", "What is wrong with my car?", ReplyContext{Report: critical}, "Critical Brake Wear (2.1mm)"},
		{"explanation without report", "why?", ReplyContext{}, "flagged a potential issue"},
		{"cost", "cost estimate please", ReplyContext{}, "detailed quote after inspection"},
		{"urgent critical", "Is this urgent?", ReplyContext{Report: critical}, "NOT driving the vehicle"},
		{"urgent nominal", "do it now please", ReplyContext{}, "slots available as early as tomorrow"},
		{"thanks", "thanks!", ReplyContext{}, "You're welcome"},
		{"cancel", "cancel it", ReplyContext{}, "Feel free to reach out"},
		{"fallback menu", "zzz", ReplyContext{}, "1. Schedule a service appointment"},
	}
	var r Responder
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Reply(tc.message, tc.ctx)
			if !strings.Contains(got, tc.want) {
				t.Errorf("Reply(%q) = %q, want substring %q", tc.message, got, tc.want)
			}
		})
	}
}

func TestResponderCaseInsensitive(t *testing.T) {
	var r Responder
	if got := r.Reply("BOOK ME IN", ReplyContext{}); !strings.Contains(got, "scheduled a service appointment") {
		t.Errorf("uppercase match failed: %q", got)
	}
}
