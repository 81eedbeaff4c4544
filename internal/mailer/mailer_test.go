package mailer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

func testMailer(enabled bool, host string) *Mailer {
	cfg := &config.NotificationsConfig{
		Enabled: enabled,
		SMTP: config.SMTPConfig{
			Host:     host,
			Port:     587,
			From:     "audits@xteam.pro",
			FromName: "XTeam.Pro",
		},
	}
	return NewMailer(cfg, "https://audit.xteam.pro")
}

func TestEnabled(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		host    string
		want    bool
	}{
		{"configured", true, "smtp.example.com", true},
		{"disabled flag", false, "smtp.example.com", false},
		{"no host", true, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := testMailer(tc.enabled, tc.host).Enabled(); got != tc.want {
				t.Errorf("Enabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendCompletionEmail_DisabledIsNoop(t *testing.T) {
	m := testMailer(false, "")

	audit := &models.Audit{ID: "audit-1", CompanyName: "Acme", ContactName: "Jane", ContactEmail: "jane@acme.example"}
	result := &models.AuditResult{MaturityScore: 55, AutomationPotential: 75}

	if err := m.SendCompletionEmail(audit, result); err != nil {
		t.Errorf("disabled mailer returned error: %v", err)
	}
}

func TestCompletionTemplate(t *testing.T) {
	m := testMailer(true, "smtp.example.com")

	var body bytes.Buffer
	err := m.completionTmpl.Execute(&body, struct {
		ContactName   string
		CompanyName   string
		MaturityScore int
		Potential     int
		ResultsURL    string
	}{
		ContactName:   "Jane",
		CompanyName:   "Acme Corp",
		MaturityScore: 55,
		Potential:     75,
		ResultsURL:    "https://audit.xteam.pro/api/v1/audit/results/audit-1",
	})
	if err != nil {
		t.Fatalf("template execute: %v", err)
	}

	html := body.String()
	for _, want := range []string{"Jane", "Acme Corp", "55 / 100", "75 / 100", "results/audit-1"} {
		if !strings.Contains(html, want) {
			t.Errorf("completion email missing %q", want)
		}
	}
}
