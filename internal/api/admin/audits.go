// audits.go implements the admin audit browsing endpoints: a filterable,
// paginated listing and a detail view that includes the analysis result.
package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/db/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AuditHandlers handles admin audit queries
type AuditHandlers struct {
	audits *repositories.AuditRepository
}

// NewAuditHandlers creates a new AuditHandlers instance
func NewAuditHandlers(audits *repositories.AuditRepository) *AuditHandlers {
	return &AuditHandlers{audits: audits}
}

// auditSummary is the listing shape. Contact details are included because the
// admin dashboard is the follow-up surface for the sales team.
type auditSummary struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	Industry     string    `json:"industry"`
	CompanySize  string    `json:"company_size"`
	ContactEmail string    `json:"contact_email"`
	ContactName  string    `json:"contact_name"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func summarize(a *models.Audit) auditSummary {
	return auditSummary{
		ID:           a.ID,
		CompanyName:  a.CompanyName,
		Industry:     a.Industry,
		CompanySize:  a.CompanySize,
		ContactEmail: a.ContactEmail,
		ContactName:  a.ContactName,
		ContactPhone: a.ContactPhone,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ListAudits returns a page of audits, newest first. Supported query
// parameters: page, per_page, status, company, start_date, end_date
// (RFC 3339 timestamps).
func (h *AuditHandlers) ListAudits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPageSize)))
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	var filters repositories.AuditFilters
	if status := c.Query("status"); status != "" {
		switch status {
		case models.AuditStatusPending, models.AuditStatusProcessing, models.AuditStatusCompleted, models.AuditStatusFailed:
			filters.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter: " + status})
			return
		}
	}
	if company := c.Query("company"); company != "" {
		filters.CompanyName = &company
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be an RFC 3339 timestamp"})
			return
		}
		filters.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be an RFC 3339 timestamp"})
			return
		}
		filters.EndDate = &t
	}

	audits, total, err := h.audits.List(c.Request.Context(), filters, perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audits"})
		return
	}

	summaries := make([]auditSummary, 0, len(audits))
	for _, a := range audits {
		summaries = append(summaries, summarize(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"audits":   summaries,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetAudit returns one audit with its full submission fields and, when the
// audit has completed, the analysis result.
func (h *AuditHandlers) GetAudit(c *gin.Context) {
	auditID := c.Param("id")
	ctx := c.Request.Context()

	audit, err := h.audits.Get(ctx, auditID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuditNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit"})
		return
	}

	response := gin.H{
		"audit":             summarize(audit),
		"current_processes": audit.CurrentProcesses,
		"pain_points":       audit.PainPoints,
		"automation_goals":  audit.AutomationGoals,
		"budget_range":      audit.BudgetRange,
		"timeline":          audit.Timeline,
	}

	result, err := h.audits.GetResult(ctx, auditID)
	switch {
	case err == nil:
		response["result"] = gin.H{
			"maturity_score":          result.MaturityScore,
			"automation_potential":    result.AutomationPotential,
			"roi_projection":          result.ROIProjection,
			"implementation_timeline": result.ImplementationTimeline,
			"strengths":               result.Strengths,
			"weaknesses":              result.Weaknesses,
			"opportunities":           result.Opportunities,
			"recommendations":         result.Recommendations,
			"process_scores":          result.ProcessScores,
			"priority_areas":          result.PriorityAreas,
			"created_at":              result.CreatedAt,
		}
	case errors.Is(err, repositories.ErrResultNotReady), errors.Is(err, repositories.ErrResultNotFound):
		// Listing an in-flight or failed audit is fine; there is just no result.
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		return
	}

	c.JSON(http.StatusOK, response)
}
