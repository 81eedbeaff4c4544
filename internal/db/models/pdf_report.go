package models

import "time"

// ReportTypeAudit is the report_type of the full assessment report, currently
// the only kind the dispatcher generates.
const ReportTypeAudit = "audit_report"

// PDFReport is a generated report artifact derived from a completed audit.
// An audit may accumulate several reports over time; only the download counter
// is ever mutated after creation.
type PDFReport struct {
	ID            string    `db:"id"`
	AuditID       string    `db:"audit_id"`
	Filename      string    `db:"filename"`
	StoragePath   string    `db:"storage_path"`
	FileSize      int64     `db:"file_size"`
	ReportType    string    `db:"report_type"`
	GeneratedAt   time.Time `db:"generated_at"`
	DownloadCount int       `db:"download_count"`
}
