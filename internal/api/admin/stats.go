// stats.go implements handlers for aggregating and serving dashboard statistics.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// StatsHandler handles stats-related API requests
type StatsHandler struct {
	db *sqlx.DB
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(database *sqlx.DB) *StatsHandler {
	return &StatsHandler{
		db: database,
	}
}

// DashboardStats represents the response for dashboard statistics
type DashboardStats struct {
	Audits  AuditStats  `json:"audits"`
	Results ResultStats `json:"results"`
	Reports ReportStats `json:"reports"`
}

// AuditStats is the audit pipeline breakdown by lifecycle status.
type AuditStats struct {
	Total      int64           `json:"total"`
	Pending    int64           `json:"pending"`
	Processing int64           `json:"processing"`
	Completed  int64           `json:"completed"`
	Failed     int64           `json:"failed"`
	ByIndustry []IndustryCount `json:"by_industry"`
}

// IndustryCount is a count of audits for a single industry.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int64  `json:"count"`
}

// ResultStats summarises the analysis output across completed audits.
type ResultStats struct {
	Total                  int64   `json:"total"`
	AvgMaturityScore       float64 `json:"avg_maturity_score"`
	AvgAutomationPotential float64 `json:"avg_automation_potential"`
	AvgROIProjection       float64 `json:"avg_roi_projection"`
}

// ReportStats summarises generated reports and how often they are fetched.
type ReportStats struct {
	Total     int64 `json:"total"`
	Downloads int64 `json:"downloads"`
}

// GetDashboardStats returns dashboard statistics using a single database
// round-trip for the core counts.
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'processing') AS processing,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			(SELECT COUNT(*) FROM audit_results) AS result_count,
			(SELECT COALESCE(AVG(maturity_score), 0) FROM audit_results) AS avg_maturity,
			(SELECT COALESCE(AVG(automation_potential), 0) FROM audit_results) AS avg_potential,
			(SELECT COALESCE(AVG(roi_projection), 0) FROM audit_results) AS avg_roi,
			(SELECT COUNT(*) FROM pdf_reports) AS report_count,
			(SELECT COALESCE(SUM(download_count), 0) FROM pdf_reports) AS report_downloads
		FROM audits
	`

	var stats DashboardStats

	err := h.db.QueryRowContext(ctx, query).Scan(
		&stats.Audits.Total,
		&stats.Audits.Pending,
		&stats.Audits.Processing,
		&stats.Audits.Completed,
		&stats.Audits.Failed,
		&stats.Results.Total,
		&stats.Results.AvgMaturityScore,
		&stats.Results.AvgAutomationPotential,
		&stats.Results.AvgROIProjection,
		&stats.Reports.Total,
		&stats.Reports.Downloads,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard statistics"})
		return
	}

	// Industry breakdown, top 8. Optional: a query failure leaves the list empty.
	stats.Audits.ByIndustry = []IndustryCount{}
	if rows, indErr := h.db.QueryContext(ctx, `
		SELECT industry, COUNT(*) AS count
		FROM audits
		GROUP BY industry
		ORDER BY count DESC
		LIMIT 8
	`); indErr == nil {
		defer rows.Close()
		for rows.Next() {
			var entry IndustryCount
			if scanErr := rows.Scan(&entry.Industry, &entry.Count); scanErr == nil {
				stats.Audits.ByIndustry = append(stats.Audits.ByIndustry, entry)
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}
