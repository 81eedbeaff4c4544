package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newReportRepo(t *testing.T) (*ReportRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReportRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var reportCols = []string{
	"id", "audit_id", "filename", "storage_path",
	"file_size", "report_type", "generated_at", "download_count",
}

func sampleReportRow() *sqlmock.Rows {
	return sqlmock.NewRows(reportCols).
		AddRow("report-1", "audit-1", "audit_report_audit-1.pdf", "reports/audit-1/audit_report_audit-1.pdf",
			int64(48213), models.ReportTypeAudit, time.Now(), 3)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateReport_Success(t *testing.T) {
	repo, mock := newReportRepo(t)
	mock.ExpectExec("INSERT INTO pdf_reports").
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.PDFReport{
		AuditID:     "audit-1",
		Filename:    "audit_report_audit-1.pdf",
		StoragePath: "reports/audit-1/audit_report_audit-1.pdf",
		FileSize:    48213,
		ReportType:  models.ReportTypeAudit,
	}
	if err := repo.Create(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID == "" {
		t.Error("expected generated report ID")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected generated_at to be set")
	}
}

// ---------------------------------------------------------------------------
// GetLatestForAudit
// ---------------------------------------------------------------------------

func TestGetLatestForAudit_Success(t *testing.T) {
	repo, mock := newReportRepo(t)
	mock.ExpectQuery("SELECT \\* FROM pdf_reports").
		WithArgs("audit-1").
		WillReturnRows(sampleReportRow())

	report, err := repo.GetLatestForAudit(context.Background(), "audit-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Filename != "audit_report_audit-1.pdf" {
		t.Errorf("filename = %q", report.Filename)
	}
}

func TestGetLatestForAudit_NotFound(t *testing.T) {
	repo, mock := newReportRepo(t)
	mock.ExpectQuery("SELECT \\* FROM pdf_reports").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(reportCols))

	_, err := repo.GetLatestForAudit(context.Background(), "missing")
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("err = %v, want ErrReportNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// IncrementDownloadCount
// ---------------------------------------------------------------------------

func TestIncrementDownloadCount_Success(t *testing.T) {
	repo, mock := newReportRepo(t)
	mock.ExpectExec("UPDATE pdf_reports SET download_count").
		WithArgs("report-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementDownloadCount(context.Background(), "report-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIncrementDownloadCount_NotFound(t *testing.T) {
	repo, mock := newReportRepo(t)
	mock.ExpectExec("UPDATE pdf_reports SET download_count").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementDownloadCount(context.Background(), "missing")
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("err = %v, want ErrReportNotFound", err)
	}
}
