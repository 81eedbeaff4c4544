package audits

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/db/repositories"
	"github.com/xteam-pro/audit-platform/internal/pipeline"
	"github.com/xteam-pro/audit-platform/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

type fakeStore struct {
	files map[string][]byte
}

func (f *fakeStore) Upload(ctx context.Context, path string, r io.Reader, size int64) (*storage.UploadResult, error) {
	return &storage.UploadResult{Path: path}, nil
}

func (f *fakeStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, path string) error { return nil }

func (f *fakeStore) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := f.files[path]
	return ok, nil
}

func (f *fakeStore) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	return nil, nil
}

// newTestHandler wires a Handler over a single sqlmock connection shared by
// both repositories, so expectations form one ordered stream.
func newTestHandler(t *testing.T, queueSize int, store storage.Storage) (*Handler, sqlmock.Sqlmock, *pipeline.Queue) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auditRepo := repositories.NewAuditRepository(db)
	reportRepo := repositories.NewReportRepository(sqlx.NewDb(db, "sqlmock"))

	// The queue is never started: Enqueue buffers into the channel, which is
	// all the handler exercises.
	queue := pipeline.NewQueue(&config.PipelineConfig{Workers: 1, QueueSize: queueSize}, nil)

	return NewHandler(auditRepo, reportRepo, queue, store, nil), mock, queue
}

func newAuditRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/audit/submit", h.Submit)
	r.GET("/api/v1/audit/status/:id", h.Status)
	r.GET("/api/v1/audit/results/:id", h.Results)
	r.GET("/api/v1/audit/download/:id", h.Download)
	return r
}

var auditCols = []string{
	"id", "company_name", "industry", "company_size", "current_processes",
	"pain_points", "automation_goals", "budget_range", "timeline",
	"contact_email", "contact_name", "contact_phone", "status", "created_at", "updated_at",
}

func auditRows(id, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(auditCols).AddRow(
		id, "Acme Corp", "Manufacturing", "51-200",
		[]byte(`["invoicing"]`), []byte(`["manual data entry"]`), []byte(`["reduce errors"]`),
		"$10k-$50k", "3 months", "ops@acme.example", "Jane Doe", nil,
		status, now, now,
	)
}

var resultCols = []string{
	"id", "audit_id", "maturity_score", "automation_potential", "roi_projection",
	"implementation_timeline", "strengths", "weaknesses", "opportunities",
	"recommendations", "process_scores", "priority_areas",
	"estimated_savings", "implementation_cost", "payback_period", "created_at",
}

func resultRows(auditID string) *sqlmock.Rows {
	return sqlmock.NewRows(resultCols).AddRow(
		"res-1", auditID, 62, 78, 145.0,
		"3-6 months", []byte(`["clear goals"]`), []byte(`["manual invoicing"]`),
		[]byte(`["automate intake"]`), []byte(`["start with invoicing"]`),
		[]byte(`{"invoicing":40}`), []byte(`["automate intake"]`),
		60000.0, 40000.0, 8.0, time.Now().UTC(),
	)
}

var reportCols = []string{
	"id", "audit_id", "filename", "storage_path", "file_size",
	"report_type", "generated_at", "download_count",
}

const validSubmission = `{
	"company_name": "Acme Corp",
	"industry": "Manufacturing",
	"company_size": "51-200",
	"current_processes": ["invoicing"],
	"pain_points": ["manual data entry"],
	"automation_goals": ["reduce errors"],
	"contact_email": "ops@acme.example",
	"contact_name": "Jane Doe"
}`

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return body
}

// ----------------------------------------------------------------------------
// Submit
// ----------------------------------------------------------------------------

func TestSubmit_Accepted(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectExec("INSERT INTO audits").WillReturnResult(sqlmock.NewResult(1, 1))

	w := doRequest(r, http.MethodPost, "/api/v1/audit/submit", validSubmission)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["audit_id"] == "" {
		t.Error("expected audit_id in response")
	}
	if body["status"] != models.AuditStatusProcessing {
		t.Errorf("expected status %q, got %v", models.AuditStatusProcessing, body["status"])
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	h, _, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	w := doRequest(r, http.MethodPost, "/api/v1/audit/submit", `{"industry":"Manufacturing"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["field"] != "company_name" {
		t.Errorf("expected field company_name, got %v", body["field"])
	}
}

func TestSubmit_MalformedJSON(t *testing.T) {
	h, _, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	w := doRequest(r, http.MethodPost, "/api/v1/audit/submit", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	h, mock, queue := newTestHandler(t, 1, nil)
	r := newAuditRouter(h)

	// Fill the single queue slot so the submission is rejected.
	if err := queue.Enqueue(&models.Audit{ID: "occupant"}); err != nil {
		t.Fatalf("priming enqueue failed: %v", err)
	}

	mock.ExpectExec("INSERT INTO audits").WillReturnResult(sqlmock.NewResult(1, 1))
	// Rejected audits are failed immediately instead of waiting for the reaper.
	mock.ExpectExec("UPDATE audits SET status").WillReturnResult(sqlmock.NewResult(1, 1))

	w := doRequest(r, http.MethodPost, "/api/v1/audit/submit", validSubmission)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubmit_DatabaseError(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectExec("INSERT INTO audits").WillReturnError(sql.ErrConnDone)

	w := doRequest(r, http.MethodPost, "/api/v1/audit/submit", validSubmission)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Status
// ----------------------------------------------------------------------------

func TestStatus_Found(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("audit-1").
		WillReturnRows(auditRows("audit-1", models.AuditStatusProcessing))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/status/audit-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["status"] != models.AuditStatusProcessing {
		t.Errorf("expected processing, got %v", body["status"])
	}
}

func TestStatus_NotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(r, http.MethodGet, "/api/v1/audit/status/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Results
// ----------------------------------------------------------------------------

func TestResults_Completed(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audit_results").
		WithArgs("audit-1").
		WillReturnRows(resultRows("audit-1"))
	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("audit-1").
		WillReturnRows(auditRows("audit-1", models.AuditStatusCompleted))
	mock.ExpectQuery(`SELECT \* FROM pdf_reports`).
		WithArgs("audit-1").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(r, http.MethodGet, "/api/v1/audit/results/audit-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["maturity_score"] != float64(62) {
		t.Errorf("expected maturity_score 62, got %v", body["maturity_score"])
	}
	if body["estimated_savings"] != float64(60000) {
		t.Errorf("expected estimated_savings 60000, got %v", body["estimated_savings"])
	}
	if _, ok := body["pdf_report_url"]; ok {
		t.Error("expected no pdf_report_url without a report")
	}
}

func TestResults_IncludesReportURL(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audit_results").
		WithArgs("audit-1").
		WillReturnRows(resultRows("audit-1"))
	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("audit-1").
		WillReturnRows(auditRows("audit-1", models.AuditStatusCompleted))
	mock.ExpectQuery(`SELECT \* FROM pdf_reports`).
		WithArgs("audit-1").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"rep-1", "audit-1", "audit_report_audit-1.pdf", "audit-1/audit_report_audit-1.pdf",
			int64(2048), models.ReportTypeAudit, time.Now().UTC(), 0,
		))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/results/audit-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["pdf_report_url"] != "/api/v1/audit/download/audit-1" {
		t.Errorf("unexpected pdf_report_url: %v", body["pdf_report_url"])
	}
}

func TestResults_StillProcessing(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audit_results").
		WithArgs("audit-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("audit-1").
		WillReturnRows(auditRows("audit-1", models.AuditStatusProcessing))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/results/audit-1", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResults_FailedAudit(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audit_results").
		WithArgs("audit-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("audit-1").
		WillReturnRows(auditRows("audit-1", models.AuditStatusFailed))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/results/audit-1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestResults_UnknownAudit(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, nil)
	r := newAuditRouter(h)

	mock.ExpectQuery("SELECT (.+) FROM audit_results").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(r, http.MethodGet, "/api/v1/audit/results/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Download
// ----------------------------------------------------------------------------

func TestDownload_ServesPDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake content")
	store := &fakeStore{files: map[string][]byte{
		"audit-1/audit_report_audit-1.pdf": pdf,
	}}
	h, mock, _ := newTestHandler(t, 4, store)
	r := newAuditRouter(h)

	mock.ExpectQuery(`SELECT \* FROM pdf_reports`).
		WithArgs("audit-1").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"rep-1", "audit-1", "audit_report_audit-1.pdf", "audit-1/audit_report_audit-1.pdf",
			int64(len(pdf)), models.ReportTypeAudit, time.Now().UTC(), 3,
		))
	mock.ExpectExec("UPDATE pdf_reports SET download_count").
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/download/audit-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), pdf) {
		t.Error("response body does not match stored PDF")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDownload_NoReport(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, &fakeStore{})
	r := newAuditRouter(h)

	mock.ExpectQuery(`SELECT \* FROM pdf_reports`).
		WithArgs("audit-1").
		WillReturnError(sql.ErrNoRows)

	w := doRequest(r, http.MethodGet, "/api/v1/audit/download/audit-1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDownload_StorageFailure(t *testing.T) {
	h, mock, _ := newTestHandler(t, 4, &fakeStore{})
	r := newAuditRouter(h)

	mock.ExpectQuery(`SELECT \* FROM pdf_reports`).
		WithArgs("audit-1").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"rep-1", "audit-1", "audit_report_audit-1.pdf", "audit-1/missing.pdf",
			int64(10), models.ReportTypeAudit, time.Now().UTC(), 0,
		))

	w := doRequest(r, http.MethodGet, "/api/v1/audit/download/audit-1", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
