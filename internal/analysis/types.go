// Package analysis produces automation assessments for validated submissions.
//
// Two strategies exist: a remote text-generation model and a deterministic
// local fallback. Both emit the same RawAnalysis shape; the normalizer turns
// any RawAnalysis, however incomplete, into a fully-populated AuditResult.
// Remote failures never surface to callers: the engine composes the two
// strategies so that analysis as a whole cannot fail.
package analysis

import (
	"context"

	"github.com/xteam-pro/audit-platform/internal/intake"
)

// RawAnalysis is the untrusted output of an analysis strategy. Nil pointers and
// nil slices mark absent fields; the normalizer substitutes defaults for them.
// Using an explicit struct rather than a map keeps missing-field handling
// exhaustive and type-checked.
type RawAnalysis struct {
	MaturityScore          *float64
	AutomationPotential    *float64
	ROIProjection          *float64
	ImplementationTimeline *string
	Strengths              []string
	Weaknesses             []string
	Opportunities          []string
	Recommendations        []string
	ProcessScores          map[string]int
	Cost                   *RawCostAnalysis
}

// RawCostAnalysis mirrors the nested cost_analysis object of the model's
// JSON contract.
type RawCostAnalysis struct {
	AnnualSavings       *float64
	EstimatedInvestment *float64
	PaybackMonths       *float64
}

// Strategy computes a raw analysis for one submission. Implementations must
// honour ctx cancellation on any network I/O.
type Strategy interface {
	Analyze(ctx context.Context, sub intake.Submission) (RawAnalysis, error)
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
