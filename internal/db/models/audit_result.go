package models

import "time"

// AuditResult is the structured output of analyzing one audit. It is created in
// the same transaction that moves the audit to completed, and is immutable
// thereafter. Exactly one result may exist per audit (UNIQUE audit_id).
type AuditResult struct {
	ID                     string
	AuditID                string
	MaturityScore          int     // 0-100
	AutomationPotential    int     // 0-100
	ROIProjection          float64 // projected ROI percentage
	ImplementationTimeline string
	Strengths              []string       // JSONB
	Weaknesses             []string       // JSONB
	Opportunities          []string       // JSONB
	Recommendations        []string       // JSONB
	ProcessScores          map[string]int // JSONB: process name → score
	PriorityAreas          []string       // JSONB: top opportunities
	EstimatedSavings       *float64       // annual savings, dollars
	ImplementationCost     *float64       // dollars
	PaybackPeriod          *float64       // months
	CreatedAt              time.Time
}
