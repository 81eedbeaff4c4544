// report_repository.go implements ReportRepository, tracking generated PDF
// report artifacts and their download counters.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

// ReportRepository handles pdf_reports database operations
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create registers a generated report artifact
func (r *ReportRepository) Create(ctx context.Context, report *models.PDFReport) error {
	report.ID = uuid.New().String()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pdf_reports (id, audit_id, filename, storage_path, file_size, report_type, generated_at, download_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.AuditID, report.Filename, report.StoragePath,
		report.FileSize, report.ReportType, report.GeneratedAt, report.DownloadCount,
	)
	return err
}

// GetLatestForAudit retrieves the most recently generated report for an audit
func (r *ReportRepository) GetLatestForAudit(ctx context.Context, auditID string) (*models.PDFReport, error) {
	var report models.PDFReport
	query := `SELECT * FROM pdf_reports WHERE audit_id = $1 ORDER BY generated_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &report, query, auditID)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListForAudit lists every report generated for an audit, newest first
func (r *ReportRepository) ListForAudit(ctx context.Context, auditID string) ([]*models.PDFReport, error) {
	reports := make([]*models.PDFReport, 0)
	query := `SELECT * FROM pdf_reports WHERE audit_id = $1 ORDER BY generated_at DESC`
	err := r.db.SelectContext(ctx, &reports, query, auditID)
	return reports, err
}

// IncrementDownloadCount bumps the download counter for a report
func (r *ReportRepository) IncrementDownloadCount(ctx context.Context, reportID string) error {
	query := `UPDATE pdf_reports SET download_count = download_count + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, reportID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReportNotFound
	}
	return nil
}
