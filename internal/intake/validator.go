// Package intake validates and normalizes raw audit submissions before any
// record is created. Validation is synchronous and side-effect free: a rejected
// submission never touches the database.
package intake

import (
	"fmt"
	"regexp"
	"strings"
)

// Field length caps, matching the audits table column widths.
const (
	maxCompanyName  = 200
	maxIndustry     = 100
	maxCompanySize  = 50
	maxBudgetRange  = 50
	maxTimeline     = 50
	maxContactEmail = 255
	maxContactName  = 100
	maxContactPhone = 20
)

// defaultUnspecified fills optional budget_range / timeline fields.
const defaultUnspecified = "Not specified"

// emailPattern accepts the basic local@domain.tld shape. Full RFC 5322
// validation is deliberately out of scope; the address is only used as an
// SMTP recipient where the mail server is the real authority.
var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w+$`)

// SubmissionInput carries the raw fields received from the HTTP layer.
type SubmissionInput struct {
	CompanyName      string   `json:"company_name"`
	Industry         string   `json:"industry"`
	CompanySize      string   `json:"company_size"`
	CurrentProcesses []string `json:"current_processes"`
	PainPoints       []string `json:"pain_points"`
	AutomationGoals  []string `json:"automation_goals"`
	BudgetRange      string   `json:"budget_range"`
	Timeline         string   `json:"timeline"`
	ContactEmail     string   `json:"contact_email"`
	ContactName      string   `json:"contact_name"`
	ContactPhone     string   `json:"contact_phone"`
}

// Submission is a validated, normalized submission ready for persistence and
// analysis. Optional fields are defaulted; list entries are trimmed.
type Submission struct {
	CompanyName      string
	Industry         string
	CompanySize      string
	CurrentProcesses []string
	PainPoints       []string
	AutomationGoals  []string
	BudgetRange      string
	Timeline         string
	ContactEmail     string
	ContactName      string
	ContactPhone     *string
}

// ValidationError describes a rejected submission field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks the raw input against field constraints and returns a
// normalized Submission. It is the only gate between the HTTP layer and the
// audit pipeline: anything it accepts must be safe to persist and analyze.
func Validate(in SubmissionInput) (Submission, error) {
	var sub Submission

	companyName := strings.TrimSpace(in.CompanyName)
	if companyName == "" {
		return sub, invalid("company_name", "is required")
	}
	if len(companyName) > maxCompanyName {
		return sub, invalid("company_name", fmt.Sprintf("exceeds %d characters", maxCompanyName))
	}

	industry := strings.TrimSpace(in.Industry)
	if industry == "" {
		return sub, invalid("industry", "is required")
	}
	if len(industry) > maxIndustry {
		return sub, invalid("industry", fmt.Sprintf("exceeds %d characters", maxIndustry))
	}

	companySize := strings.TrimSpace(in.CompanySize)
	if companySize == "" {
		return sub, invalid("company_size", "is required")
	}
	if len(companySize) > maxCompanySize {
		return sub, invalid("company_size", fmt.Sprintf("exceeds %d characters", maxCompanySize))
	}

	processes, err := normalizeList("current_processes", in.CurrentProcesses)
	if err != nil {
		return sub, err
	}
	painPoints, err := normalizeList("pain_points", in.PainPoints)
	if err != nil {
		return sub, err
	}
	goals, err := normalizeList("automation_goals", in.AutomationGoals)
	if err != nil {
		return sub, err
	}

	email := strings.TrimSpace(in.ContactEmail)
	if email == "" {
		return sub, invalid("contact_email", "is required")
	}
	if len(email) > maxContactEmail {
		return sub, invalid("contact_email", fmt.Sprintf("exceeds %d characters", maxContactEmail))
	}
	if !emailPattern.MatchString(email) {
		return sub, invalid("contact_email", "is not a valid email address")
	}

	contactName := strings.TrimSpace(in.ContactName)
	if contactName == "" {
		return sub, invalid("contact_name", "is required")
	}
	if len(contactName) > maxContactName {
		return sub, invalid("contact_name", fmt.Sprintf("exceeds %d characters", maxContactName))
	}

	budget := strings.TrimSpace(in.BudgetRange)
	if budget == "" {
		budget = defaultUnspecified
	}
	if len(budget) > maxBudgetRange {
		return sub, invalid("budget_range", fmt.Sprintf("exceeds %d characters", maxBudgetRange))
	}

	timeline := strings.TrimSpace(in.Timeline)
	if timeline == "" {
		timeline = defaultUnspecified
	}
	if len(timeline) > maxTimeline {
		return sub, invalid("timeline", fmt.Sprintf("exceeds %d characters", maxTimeline))
	}

	var phone *string
	if p := strings.TrimSpace(in.ContactPhone); p != "" {
		if len(p) > maxContactPhone {
			return sub, invalid("contact_phone", fmt.Sprintf("exceeds %d characters", maxContactPhone))
		}
		phone = &p
	}

	return Submission{
		CompanyName:      companyName,
		Industry:         industry,
		CompanySize:      companySize,
		CurrentProcesses: processes,
		PainPoints:       painPoints,
		AutomationGoals:  goals,
		BudgetRange:      budget,
		Timeline:         timeline,
		ContactEmail:     email,
		ContactName:      contactName,
		ContactPhone:     phone,
	}, nil
}

// normalizeList trims entries, drops empties, and rejects lists that end up empty.
func normalizeList(field string, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, invalid(field, "must contain at least one entry")
	}
	return out, nil
}
