package report

import (
	"strings"
	"testing"
	"time"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

func testAudit() *models.Audit {
	return &models.Audit{
		ID:           "audit-1",
		CompanyName:  "Acme Corp",
		Industry:     "Manufacturing",
		CompanySize:  "medium",
		ContactEmail: "ops@acme.example",
		ContactName:  "Jane Doe",
	}
}

func testResult() *models.AuditResult {
	savings := 60000.0
	cost := 40000.0
	payback := 12.0
	return &models.AuditResult{
		MaturityScore:          55,
		AutomationPotential:    75,
		ROIProjection:          150.0,
		ImplementationTimeline: "6-12 months depending on scope and complexity",
		Strengths:              []string{"Established operational processes"},
		Weaknesses:             []string{"Manual data entry"},
		Opportunities:          []string{"Invoice processing automation"},
		Recommendations:        []string{"Start with a pilot project"},
		ProcessScores:          map[string]int{"invoicing": 40},
		EstimatedSavings:       &savings,
		ImplementationCost:     &cost,
		PaybackPeriod:          &payback,
	}
}

func TestRenderHTML(t *testing.T) {
	r := NewRenderer(&config.StorageConfig{PDFTimeout: time.Second})

	html, err := r.renderHTML(testAudit(), testResult())
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}

	for _, want := range []string{
		"Acme Corp",
		"XTEAM.PRO",
		"55",
		"$60,000",
		"$40,000",
		"150%",
		"Invoice processing automation",
		"6-12 months depending on scope and complexity",
		"ops@acme.example",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderHTML_NoCostAnalysis(t *testing.T) {
	r := NewRenderer(&config.StorageConfig{})

	result := testResult()
	result.EstimatedSavings = nil
	result.ImplementationCost = nil
	result.PaybackPeriod = nil

	html, err := r.renderHTML(testAudit(), result)
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}
	if strings.Contains(html, "Investment Analysis") {
		t.Error("cost section rendered without cost figures")
	}
}

func TestRenderHTML_EscapesUserInput(t *testing.T) {
	r := NewRenderer(&config.StorageConfig{})

	audit := testAudit()
	audit.CompanyName = `<script>alert("x")</script>`

	html, err := r.renderHTML(audit, testResult())
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("company name was not HTML-escaped")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{60000, "60,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.in); got != tc.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
