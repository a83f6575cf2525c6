package recall

import (
	"fmt"
	"strings"

	"autoguard/pkg/diagnosis"
)

// ManufacturerStats aggregates failures for one manufacturer.
type ManufacturerStats struct {
	Total       int            `json:"total"`
	Critical    int            `json:"critical"`
	High        int            `json:"high"`
	ByPart      map[string]int `json:"by_part"`
	AvgSeverity string         `json:"avg_severity,omitempty"`
}

// Candidate is a (manufacturer, part) pair that crossed the recall threshold.
type Candidate struct {
	Manufacturer   string             `json:"manufacturer"`
	PartType       string             `json:"part_type"`
	FailureCount   int                `json:"failure_count"`
	CriticalCount  int                `json:"critical_count"`
	Severity       diagnosis.Severity `json:"severity"`
	Risk           Risk               `json:"recall_risk"`
	Pattern        string             `json:"pattern"`
	Recommendation string             `json:"recommendation"`
}

// FailuresByManufacturer returns per-manufacturer failure statistics.
func (t *Tracker) FailuresByManufacturer() map[string]ManufacturerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make(map[string]ManufacturerStats)
	for _, f := range t.failures {
		s, ok := stats[f.Manufacturer]
		if !ok {
			s = ManufacturerStats{ByPart: make(map[string]int)}
		}
		s.Total++
		switch f.Severity {
		case diagnosis.SeverityCritical:
			s.Critical++
		case diagnosis.SeverityHigh:
			s.High++
		}
		s.ByPart[f.PartType]++
		stats[f.Manufacturer] = s
	}

	for mfr, s := range stats {
		if s.Total == 0 {
			continue
		}
		score := float64(s.Critical*3+s.High*2) / float64(s.Total)
		switch {
		case score >= 2:
			s.AvgSeverity = "High"
		case score >= 1:
			s.AvgSeverity = "Medium"
		default:
			s.AvgSeverity = "Low"
		}
		stats[mfr] = s
	}
	return stats
}

// RecallCandidates lists the (manufacturer, part) clusters at or above the
// recall threshold, worst first.
func (t *Tracker) RecallCandidates() []Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	type key struct{ manufacturer, part string }
	grouped := make(map[key][]FailureRecord)
	var order []key
	for _, f := range t.failures {
		k := key{f.Manufacturer, f.PartType}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], f)
	}

	var candidates []Candidate
	for _, k := range order {
		failures := grouped[k]
		if len(failures) < RecallThreshold {
			continue
		}
		critical := 0
		for _, f := range failures {
			if f.Severity == diagnosis.SeverityCritical {
				critical++
			}
		}
		severity := diagnosis.SeverityMedium
		switch {
		case critical >= 2:
			severity = diagnosis.SeverityCritical
		case critical >= 1:
			severity = diagnosis.SeverityHigh
		}
		risk := assessRisk(len(failures), critical)
		candidates = append(candidates, Candidate{
			Manufacturer:   k.manufacturer,
			PartType:       k.part,
			FailureCount:   len(failures),
			CriticalCount:  critical,
			Severity:       severity,
			Risk:           risk,
			Pattern:        identifyPattern(failures),
			Recommendation: riskRecommendation(risk, len(failures)),
		})
	}
	sortCandidates(candidates)
	return candidates
}

// identifyPattern extracts words shared by every failure description in a
// cluster, falling back to a generic summary.
func identifyPattern(failures []FailureRecord) string {
	if len(failures) == 0 {
		return "No pattern identified"
	}

	var common map[string]struct{}
	for _, f := range failures {
		words := make(map[string]struct{})
		for _, w := range strings.Fields(strings.ToLower(f.Description)) {
			words[w] = struct{}{}
		}
		if common == nil {
			common = words
			continue
		}
		for w := range common {
			if _, ok := words[w]; !ok {
				delete(common, w)
			}
		}
	}

	var pattern []string
	for w := range common {
		if len(w) > 3 {
			pattern = append(pattern, w)
		}
	}
	if len(pattern) > 0 {
		if len(pattern) > 3 {
			pattern = pattern[:3]
		}
		return fmt.Sprintf("Common issue: %s", strings.Join(pattern, " "))
	}
	return fmt.Sprintf("Multiple failures reported for %s", failures[0].PartType)
}
