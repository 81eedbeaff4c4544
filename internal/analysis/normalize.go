package analysis

import (
	"math"

	"github.com/xteam-pro/audit-platform/internal/db/models"
)

// Normalizer defaults, applied when a raw field is absent or unusable.
const (
	defaultMaturityScore       = 50
	defaultAutomationPotential = 75
	defaultROIProjection       = 150.0
	defaultTimeline            = "6-12 months"
	defaultAnnualSavings       = 150000.0
	defaultImplementationCost  = 100000.0
	defaultPaybackMonths       = 12.0
	priorityAreaCount          = 3

	// maxTimelineLen matches audit_results.implementation_timeline VARCHAR(100).
	// The timeline is the only free-text column fed by model output; everything
	// else is JSONB or numeric.
	maxTimelineLen = 100
)

// Placeholder lists keep every result presentable: a report consumer must
// never see an empty strengths/weaknesses/opportunities/recommendations list.
var (
	defaultStrengths       = []string{"Well-defined processes", "Clear goals"}
	defaultWeaknesses      = []string{"Manual processes", "Limited integration"}
	defaultOpportunities   = []string{"Data entry automation", "Report generation", "Workflow automation"}
	defaultRecommendations = []string{"Implement process automation", "Digitize manual workflows"}
	defaultProcessScores   = map[string]int{"data_entry": 60, "reporting": 70, "approval_workflow": 50}
)

// Normalize converts a raw analysis into a schema-valid AuditResult. It is a
// total function: for any input, including the zero RawAnalysis, every field of
// the returned result is populated and in range. Scores are clamped to [0,100],
// missing lists get fixed placeholders, and priority areas are derived as the
// first three opportunities. The caller assigns ID and AuditID before persisting.
func Normalize(raw RawAnalysis) models.AuditResult {
	opportunities := normalizeStringList(raw.Opportunities, defaultOpportunities)

	result := models.AuditResult{
		MaturityScore:          clampScore(raw.MaturityScore, defaultMaturityScore),
		AutomationPotential:    clampScore(raw.AutomationPotential, defaultAutomationPotential),
		ROIProjection:          floatOrDefault(raw.ROIProjection, defaultROIProjection),
		ImplementationTimeline: clampText(raw.ImplementationTimeline, defaultTimeline, maxTimelineLen),
		Strengths:              normalizeStringList(raw.Strengths, defaultStrengths),
		Weaknesses:             normalizeStringList(raw.Weaknesses, defaultWeaknesses),
		Opportunities:          opportunities,
		Recommendations:        normalizeStringList(raw.Recommendations, defaultRecommendations),
		ProcessScores:          normalizeProcessScores(raw.ProcessScores),
		PriorityAreas:          priorityAreas(opportunities),
	}

	savings := defaultAnnualSavings
	cost := defaultImplementationCost
	payback := defaultPaybackMonths
	if raw.Cost != nil {
		savings = floatOrDefault(raw.Cost.AnnualSavings, defaultAnnualSavings)
		cost = floatOrDefault(raw.Cost.EstimatedInvestment, defaultImplementationCost)
		payback = floatOrDefault(raw.Cost.PaybackMonths, defaultPaybackMonths)
	}
	result.EstimatedSavings = &savings
	result.ImplementationCost = &cost
	result.PaybackPeriod = &payback

	return result
}

// clampScore coerces a raw score to an integer in [0,100], substituting the
// default when the value is absent or not a finite number.
func clampScore(v *float64, def int) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	score := int(*v)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func floatOrDefault(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

// clampText substitutes the default for absent values and truncates the rest
// to the column width, so a verbose model reply can never fail the insert.
func clampText(v *string, def string, max int) string {
	if v == nil || *v == "" {
		return def
	}
	if r := []rune(*v); len(r) > max {
		return string(r[:max])
	}
	return *v
}

// normalizeStringList returns a copy of values with empty entries dropped,
// or the default list when nothing usable remains.
func normalizeStringList(values, def []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func normalizeProcessScores(scores map[string]int) map[string]int {
	if len(scores) == 0 {
		out := make(map[string]int, len(defaultProcessScores))
		for k, v := range defaultProcessScores {
			out[k] = v
		}
		return out
	}
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		out[k] = v
	}
	return out
}

func priorityAreas(opportunities []string) []string {
	n := priorityAreaCount
	if len(opportunities) < n {
		n = len(opportunities)
	}
	return append([]string(nil), opportunities[:n]...)
}
