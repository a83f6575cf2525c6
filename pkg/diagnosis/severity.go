package diagnosis

// Severity grades a diagnosis. Within one evaluation severity only escalates.
type Severity string

const (
	SeverityNormal   Severity = "Normal"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severityRank = map[Severity]int{
	SeverityNormal:   0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordering of s; unknown severities rank below Normal.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Actionable reports whether s warrants customer notification.
func (s Severity) Actionable() bool {
	return s == SeverityHigh || s == SeverityCritical
}
