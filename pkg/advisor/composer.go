// Package advisor turns a diagnosis into customer-facing text. The OpenAI
// composer degrades to the deterministic template on any backend failure, so
// composition never fails from the pipeline's point of view.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"autoguard/pkg/diagnosis"
)

// Composer drafts the initial alert message for a vehicle owner.
type Composer interface {
	ComposeAlert(ctx context.Context, report diagnosis.Report, vehicleID, ownerName string) (string, error)
}

// TemplateComposer renders a deterministic alert without any external service.
type TemplateComposer struct{}

// ComposeAlert implements Composer. It never returns an error.
func (TemplateComposer) ComposeAlert(_ context.Context, report diagnosis.Report, vehicleID, ownerName string) (string, error) {
	if ownerName == "" {
		ownerName = "Valued Customer"
	}

	var greeting string
	switch report.Severity {
	case diagnosis.SeverityCritical:
		greeting = fmt.Sprintf("CRITICAL ALERT for %s", ownerName)
	case diagnosis.SeverityHigh:
		greeting = fmt.Sprintf("Important Notice for %s", ownerName)
	default:
		greeting = fmt.Sprintf("Hello %s", ownerName)
	}

	issuesText := "General maintenance required"
	if len(report.Issues) > 0 {
		var b strings.Builder
		for i, issue := range report.Issues {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(issue)
		}
		issuesText = b.String()
	}

	recommendation := report.Recommendation
	if recommendation == "" {
		recommendation = "Please contact service."
	}

	return fmt.Sprintf(`%s,

We've detected the following issue(s) with your vehicle (%s):

%s

Recommendation: %s

Please reply to schedule a service appointment or if you have any questions.

- AutoGuard Support Team`, greeting, vehicleID, issuesText, recommendation), nil
}
