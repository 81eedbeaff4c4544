// Package models defines the persisted entities of the assessment platform.
package models

import "time"

// Audit status values. Transitions are one-directional:
// pending → processing → completed | failed. Terminal statuses never change.
const (
	AuditStatusPending    = "pending"
	AuditStatusProcessing = "processing"
	AuditStatusCompleted  = "completed"
	AuditStatusFailed     = "failed"
)

// ValidTransition reports whether an audit may move from one status to another.
func ValidTransition(from, to string) bool {
	switch from {
	case AuditStatusPending:
		return to == AuditStatusProcessing
	case AuditStatusProcessing:
		return to == AuditStatusCompleted || to == AuditStatusFailed
	default:
		return false
	}
}

// Audit represents one customer's automation-assessment request and its lifecycle state.
// The submission fields are absorbed into the audit row at creation; the audit is
// never deleted by the processing pipeline.
type Audit struct {
	ID               string
	CompanyName      string
	Industry         string
	CompanySize      string
	CurrentProcesses []string // JSONB
	PainPoints       []string // JSONB
	AutomationGoals  []string // JSONB
	BudgetRange      string
	Timeline         string
	ContactEmail     string
	ContactName      string
	ContactPhone     *string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
