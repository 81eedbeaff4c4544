package analysis

import (
	"context"

	"github.com/xteam-pro/audit-platform/internal/intake"
)

// sizeMultipliers scale the baseline financial figures by company size.
// Unknown sizes use 1.0.
var sizeMultipliers = map[string]float64{
	"startup":    0.8,
	"small":      1.0,
	"medium":     1.2,
	"large":      1.5,
	"enterprise": 2.0,
}

// Baseline figures for the deterministic analysis, scaled by the size multiplier.
const (
	fallbackMaturityScore       = 55
	fallbackAutomationPotential = 75
	baselineROIProjection       = 150.0
	baselineAnnualSavings       = 50000.0
	baselineImplementationCost  = 75000.0
	fallbackPaybackMonths       = 12.0
)

// FallbackStrategy computes a deterministic analysis purely from submission
// attributes. It performs no I/O and never fails, so it is always safe as the
// terminal strategy: given the same submission it returns identical output on
// every call.
type FallbackStrategy struct{}

// NewFallbackStrategy returns the deterministic local strategy.
func NewFallbackStrategy() *FallbackStrategy {
	return &FallbackStrategy{}
}

// Analyze returns the size-scaled default assessment. The error return exists
// only to satisfy Strategy; it is always nil.
func (s *FallbackStrategy) Analyze(_ context.Context, sub intake.Submission) (RawAnalysis, error) {
	multiplier, ok := sizeMultipliers[sub.CompanySize]
	if !ok {
		multiplier = 1.0
	}

	return RawAnalysis{
		MaturityScore:          floatPtr(fallbackMaturityScore),
		AutomationPotential:    floatPtr(fallbackAutomationPotential),
		ROIProjection:          floatPtr(baselineROIProjection * multiplier),
		ImplementationTimeline: strPtr("6-12 months depending on scope and complexity"),
		Strengths: []string{
			"Well-defined business processes",
			"Clear automation goals",
			"Adequate budget allocation",
		},
		Weaknesses: []string{
			"Manual data entry processes",
			"Lack of integration between systems",
			"Time-consuming approval workflows",
		},
		Opportunities: []string{
			"Document management automation",
			"Customer service chatbots",
			"Automated reporting and analytics",
			"Workflow optimization",
		},
		Recommendations: []string{
			"Conduct detailed process mapping",
			"Implement workflow automation tools",
			"Establish data integration strategy",
			"Develop change management plan",
		},
		ProcessScores: map[string]int{
			"data_management":     70,
			"customer_service":    60,
			"financial_processes": 75,
			"hr_processes":        55,
			"operations":          65,
		},
		Cost: &RawCostAnalysis{
			AnnualSavings:       floatPtr(baselineAnnualSavings * multiplier),
			EstimatedInvestment: floatPtr(baselineImplementationCost * multiplier),
			PaybackMonths:       floatPtr(fallbackPaybackMonths),
		},
	}, nil
}
