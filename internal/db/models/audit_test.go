package models

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{AuditStatusPending, AuditStatusProcessing, true},
		{AuditStatusProcessing, AuditStatusCompleted, true},
		{AuditStatusProcessing, AuditStatusFailed, true},
		{AuditStatusPending, AuditStatusCompleted, false},
		{AuditStatusPending, AuditStatusFailed, false},
		{AuditStatusProcessing, AuditStatusPending, false},
		{AuditStatusCompleted, AuditStatusProcessing, false},
		{AuditStatusCompleted, AuditStatusFailed, false},
		{AuditStatusFailed, AuditStatusProcessing, false},
		{AuditStatusFailed, AuditStatusCompleted, false},
		{"bogus", AuditStatusProcessing, false},
		{AuditStatusPending, "bogus", false},
	}

	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
