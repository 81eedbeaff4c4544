package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/storage"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// pdfRenderer renders a completed audit into PDF bytes.
type pdfRenderer interface {
	Render(ctx context.Context, audit *models.Audit, result *models.AuditResult) ([]byte, error)
}

// reportStore registers generated report artifacts.
type reportStore interface {
	Create(ctx context.Context, report *models.PDFReport) error
}

// completionMailer sends the customer-facing completion email.
type completionMailer interface {
	SendCompletionEmail(audit *models.Audit, result *models.AuditResult) error
}

// Dispatcher runs the best-effort side effects after an audit completes:
// rendering and storing the PDF report, and emailing the customer. The two
// effects are independent; a failed report never suppresses the email and vice
// versa. Failures are logged and counted, never propagated: the audit is
// already completed and stays completed.
type Dispatcher struct {
	renderer pdfRenderer
	storage  storage.Storage
	reports  reportStore
	mailer   completionMailer
}

// NewDispatcher wires a Dispatcher. Any component may be nil to disable that
// side effect.
func NewDispatcher(renderer pdfRenderer, store storage.Storage, reports reportStore, mailer completionMailer) *Dispatcher {
	return &Dispatcher{renderer: renderer, storage: store, reports: reports, mailer: mailer}
}

// Dispatch runs both side effects for a completed audit.
func (d *Dispatcher) Dispatch(ctx context.Context, audit *models.Audit, result *models.AuditResult) {
	d.generateReport(ctx, audit, result)
	d.sendEmail(audit, result)
}

func (d *Dispatcher) generateReport(ctx context.Context, audit *models.Audit, result *models.AuditResult) {
	if d.renderer == nil || d.storage == nil || d.reports == nil {
		return
	}

	pdf, err := d.renderer.Render(ctx, audit, result)
	if err != nil {
		telemetry.PDFReportFailuresTotal.Inc()
		slog.Error("pdf report rendering failed", "audit_id", audit.ID, "error", err)
		return
	}

	filename := fmt.Sprintf("audit_report_%s.pdf", audit.ID)
	path := fmt.Sprintf("%s/%s", audit.ID, filename)

	uploaded, err := d.storage.Upload(ctx, path, bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		telemetry.PDFReportFailuresTotal.Inc()
		slog.Error("pdf report upload failed", "audit_id", audit.ID, "error", err)
		return
	}

	report := &models.PDFReport{
		AuditID:     audit.ID,
		Filename:    filename,
		StoragePath: uploaded.Path,
		FileSize:    uploaded.Size,
		ReportType:  models.ReportTypeAudit,
	}
	if err := d.reports.Create(ctx, report); err != nil {
		telemetry.PDFReportFailuresTotal.Inc()
		slog.Error("pdf report registration failed", "audit_id", audit.ID, "error", err)
		return
	}

	telemetry.PDFReportsGeneratedTotal.Inc()
	slog.Info("pdf report generated", "audit_id", audit.ID, "path", uploaded.Path, "size", uploaded.Size)
}

func (d *Dispatcher) sendEmail(audit *models.Audit, result *models.AuditResult) {
	if d.mailer == nil {
		return
	}

	if err := d.mailer.SendCompletionEmail(audit, result); err != nil {
		telemetry.CompletionEmailFailuresTotal.Inc()
		slog.Error("completion email failed", "audit_id", audit.ID, "to", audit.ContactEmail, "error", err)
		return
	}

	telemetry.CompletionEmailsSentTotal.Inc()
}
