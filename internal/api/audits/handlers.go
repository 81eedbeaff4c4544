// Package audits implements the public, unauthenticated assessment endpoints:
// submission intake, status polling, result retrieval, and report download.
// Everything here is rate limited at the router level; none of it requires a
// session because customers interact with the platform through emailed links.
package audits

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/db/repositories"
	"github.com/xteam-pro/audit-platform/internal/intake"
	"github.com/xteam-pro/audit-platform/internal/mailer"
	"github.com/xteam-pro/audit-platform/internal/pipeline"
	"github.com/xteam-pro/audit-platform/internal/safego"
	"github.com/xteam-pro/audit-platform/internal/storage"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// Handler handles the public audit endpoints.
type Handler struct {
	audits  *repositories.AuditRepository
	reports *repositories.ReportRepository
	queue   *pipeline.Queue
	store   storage.Storage
	mail    *mailer.Mailer // nil when notifications are disabled
}

// NewHandler creates a new public audit handler.
func NewHandler(audits *repositories.AuditRepository, reports *repositories.ReportRepository, queue *pipeline.Queue, store storage.Storage, mail *mailer.Mailer) *Handler {
	return &Handler{
		audits:  audits,
		reports: reports,
		queue:   queue,
		store:   store,
		mail:    mail,
	}
}

// Submit accepts a new assessment request. The submission is validated
// synchronously; on success the audit record already exists and analysis runs
// asynchronously, so the client gets a 202 with the id to poll.
func (h *Handler) Submit(c *gin.Context) {
	var input intake.SubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sub, err := intake.Validate(input)
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audit, err := h.audits.Create(c.Request.Context(), sub)
	if err != nil {
		slog.Error("failed to create audit", "company", sub.CompanyName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create audit"})
		return
	}

	if err := h.queue.Enqueue(audit); err != nil {
		// The record exists but will never be picked up; fail it now rather
		// than leaving it for the stale reaper.
		if ferr := h.audits.MarkFailed(c.Request.Context(), audit.ID); ferr != nil {
			slog.Error("failed to mark rejected audit as failed", "audit_id", audit.ID, "error", ferr)
		}
		slog.Warn("audit rejected, queue full", "audit_id", audit.ID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is at capacity, please try again later"})
		return
	}

	telemetry.AuditsSubmittedTotal.Inc()
	slog.Info("audit submitted", "audit_id", audit.ID, "company", audit.CompanyName)

	if h.mail != nil {
		safego.Go("submission notification", func() {
			if err := h.mail.SendSubmissionNotification(audit); err != nil {
				slog.Error("submission notification failed", "audit_id", audit.ID, "error", err)
			}
		})
	}

	c.JSON(http.StatusAccepted, gin.H{
		"audit_id": audit.ID,
		"status":   audit.Status,
		"message":  "Your assessment has been received and is being processed",
	})
}

// Status returns the lifecycle state of an audit.
func (h *Handler) Status(c *gin.Context) {
	audit, err := h.audits.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrAuditNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_id":   audit.ID,
		"status":     audit.Status,
		"created_at": audit.CreatedAt,
		"updated_at": audit.UpdatedAt,
	})
}

// Results returns the analysis result for a completed audit. While the audit is
// still in flight the endpoint answers 202 so clients can poll the same URL the
// completion email links to.
func (h *Handler) Results(c *gin.Context) {
	auditID := c.Param("id")
	ctx := c.Request.Context()

	result, err := h.audits.GetResult(ctx, auditID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrResultNotReady):
			c.JSON(http.StatusAccepted, gin.H{
				"audit_id": auditID,
				"status":   models.AuditStatusProcessing,
				"message":  "Analysis is still in progress",
			})
		case errors.Is(err, repositories.ErrResultNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no results available for this audit"})
		case errors.Is(err, repositories.ErrAuditNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load results"})
		}
		return
	}

	audit, err := h.audits.Get(ctx, auditID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit"})
		return
	}

	response := gin.H{
		"audit_id":                audit.ID,
		"company_name":            audit.CompanyName,
		"industry":                audit.Industry,
		"status":                  audit.Status,
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
	if result.EstimatedSavings != nil {
		response["estimated_savings"] = *result.EstimatedSavings
	}
	if result.ImplementationCost != nil {
		response["implementation_cost"] = *result.ImplementationCost
	}
	if result.PaybackPeriod != nil {
		response["payback_period"] = *result.PaybackPeriod
	}

	// Surface the PDF link once the report generator has caught up. Report
	// generation is best effort, so results may exist without one.
	if report, rerr := h.reports.GetLatestForAudit(ctx, auditID); rerr == nil {
		response["pdf_report_url"] = fmt.Sprintf("/api/v1/audit/download/%s", report.AuditID)
	} else if !errors.Is(rerr, repositories.ErrReportNotFound) {
		slog.Error("failed to look up pdf report", "audit_id", auditID, "error", rerr)
	}

	c.JSON(http.StatusOK, response)
}

// Download streams the most recent PDF report for an audit and bumps its
// download counter. Reports are proxied through the API instead of being
// served from storage directly so the counter stays accurate.
func (h *Handler) Download(c *gin.Context) {
	auditID := c.Param("id")
	ctx := c.Request.Context()

	report, err := h.reports.GetLatestForAudit(ctx, auditID)
	if err != nil {
		if errors.Is(err, repositories.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report available for this audit"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	reader, err := h.store.Download(ctx, report.StoragePath)
	if err != nil {
		slog.Error("failed to open report from storage", "audit_id", auditID, "path", report.StoragePath, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read report"})
		return
	}
	defer reader.Close()

	if err := h.reports.IncrementDownloadCount(ctx, report.ID); err != nil {
		// The download still proceeds; the counter is informational.
		slog.Error("failed to increment download count", "report_id", report.ID, "error", err)
	}

	c.DataFromReader(http.StatusOK, report.FileSize, "application/pdf", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", report.Filename),
	})
}
