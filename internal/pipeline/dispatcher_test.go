package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/storage"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(ctx context.Context, audit *models.Audit, result *models.AuditResult) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.7"), nil
}

type fakeUploader struct {
	err      error
	uploaded []string
}

func (u *fakeUploader) Upload(ctx context.Context, path string, r io.Reader, size int64) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.uploaded = append(u.uploaded, path)
	return &storage.UploadResult{Path: path, Size: size}, nil
}

func (u *fakeUploader) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (u *fakeUploader) Delete(ctx context.Context, path string) error { return nil }
func (u *fakeUploader) Exists(ctx context.Context, path string) (bool, error) {
	return false, nil
}
func (u *fakeUploader) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	return nil, errors.New("not implemented")
}

type fakeReportStore struct {
	err     error
	created []*models.PDFReport
}

func (s *fakeReportStore) Create(ctx context.Context, report *models.PDFReport) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, report)
	return nil
}

type fakeMailer struct {
	err  error
	sent []string
}

func (m *fakeMailer) SendCompletionEmail(audit *models.Audit, result *models.AuditResult) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, audit.ContactEmail)
	return nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func TestDispatch_BothSideEffects(t *testing.T) {
	uploader := &fakeUploader{}
	reports := &fakeReportStore{}
	mail := &fakeMailer{}
	d := NewDispatcher(&fakeRenderer{}, uploader, reports, mail)

	d.Dispatch(context.Background(), processingAudit("audit-1"), &models.AuditResult{MaturityScore: 55})

	if len(uploader.uploaded) != 1 {
		t.Errorf("uploaded = %v, want one path", uploader.uploaded)
	}
	if len(reports.created) != 1 {
		t.Fatalf("created = %d reports, want 1", len(reports.created))
	}
	if reports.created[0].ReportType != models.ReportTypeAudit {
		t.Errorf("report type = %q", reports.created[0].ReportType)
	}
	if len(mail.sent) != 1 {
		t.Errorf("sent = %v, want one email", mail.sent)
	}
}

func TestDispatch_RenderFailureStillSendsEmail(t *testing.T) {
	reports := &fakeReportStore{}
	mail := &fakeMailer{}
	d := NewDispatcher(&fakeRenderer{err: errors.New("chromium missing")}, &fakeUploader{}, reports, mail)

	d.Dispatch(context.Background(), processingAudit("audit-1"), &models.AuditResult{})

	if len(reports.created) != 0 {
		t.Errorf("created = %d reports, want 0", len(reports.created))
	}
	if len(mail.sent) != 1 {
		t.Errorf("sent = %v, want one email despite render failure", mail.sent)
	}
}

func TestDispatch_EmailFailureStillGeneratesReport(t *testing.T) {
	reports := &fakeReportStore{}
	d := NewDispatcher(&fakeRenderer{}, &fakeUploader{}, reports, &fakeMailer{err: errors.New("smtp down")})

	d.Dispatch(context.Background(), processingAudit("audit-1"), &models.AuditResult{})

	if len(reports.created) != 1 {
		t.Errorf("created = %d reports, want 1 despite email failure", len(reports.created))
	}
}

func TestDispatch_UploadFailureSkipsRegistration(t *testing.T) {
	reports := &fakeReportStore{}
	d := NewDispatcher(&fakeRenderer{}, &fakeUploader{err: errors.New("disk full")}, reports, nil)

	d.Dispatch(context.Background(), processingAudit("audit-1"), &models.AuditResult{})

	if len(reports.created) != 0 {
		t.Errorf("created = %d reports, want 0 after upload failure", len(reports.created))
	}
}

func TestDispatch_NilComponents(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil)

	// Everything disabled: must be a no-op, not a nil dereference.
	d.Dispatch(context.Background(), processingAudit("audit-1"), &models.AuditResult{})
}
