package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseableOutput marks model replies whose JSON payload could not be
// extracted or decoded. The engine maps it to the "parse" fallback reason.
var ErrUnparseableOutput = errors.New("unparseable model output")

// modelPayload is the JSON contract the system prompt asks the model to follow.
// All fields are optional: the normalizer tolerates any of them being absent.
type modelPayload struct {
	MaturityScore           *float64          `json:"maturity_score"`
	AutomationPotential     *float64          `json:"automation_potential"`
	ROIProjection           *float64          `json:"roi_projection"`
	TimelineEstimate        *string           `json:"timeline_estimate"`
	Strengths               []string          `json:"strengths"`
	Weaknesses              []string          `json:"weaknesses"`
	AutomationOpportunities []string          `json:"automation_opportunities"`
	Recommendations         []string          `json:"recommendations"`
	ProcessScores           map[string]int    `json:"process_scores"`
	CostAnalysis            *modelCostPayload `json:"cost_analysis"`
}

type modelCostPayload struct {
	EstimatedInvestment *float64 `json:"estimated_investment"`
	AnnualSavings       *float64 `json:"annual_savings"`
	PaybackPeriodMonths *float64 `json:"payback_period_months"`
}

// ParseModelOutput extracts the JSON object from a model's free-text reply.
// Models routinely wrap JSON in prose or markdown fences, so the parser takes
// the substring from the first '{' to the last '}' and attempts a structured
// parse of that. On any failure it returns an error: partial extraction is
// never attempted, because shipping half-parsed data is worse than falling
// back to the deterministic analysis.
func ParseModelOutput(text string) (RawAnalysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return RawAnalysis{}, fmt.Errorf("%w: no JSON object found", ErrUnparseableOutput)
	}

	var payload modelPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return RawAnalysis{}, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
	}

	raw := RawAnalysis{
		MaturityScore:          payload.MaturityScore,
		AutomationPotential:    payload.AutomationPotential,
		ROIProjection:          payload.ROIProjection,
		ImplementationTimeline: payload.TimelineEstimate,
		Strengths:              payload.Strengths,
		Weaknesses:             payload.Weaknesses,
		Opportunities:          payload.AutomationOpportunities,
		Recommendations:        payload.Recommendations,
		ProcessScores:          payload.ProcessScores,
	}
	if payload.CostAnalysis != nil {
		raw.Cost = &RawCostAnalysis{
			AnnualSavings:       payload.CostAnalysis.AnnualSavings,
			EstimatedInvestment: payload.CostAnalysis.EstimatedInvestment,
			PaybackMonths:       payload.CostAnalysis.PaybackPeriodMonths,
		}
	}
	return raw, nil
}
