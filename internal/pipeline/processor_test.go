package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xteam-pro/audit-platform/internal/analysis"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/intake"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	mu        sync.Mutex
	completed []string
	failed    []string

	completeErr error
	markErr     error
}

func (s *fakeStore) CompleteWithResult(ctx context.Context, auditID string, result *models.AuditResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed = append(s.completed, auditID)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, auditID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.failed = append(s.failed, auditID)
	return nil
}

type fakeEngine struct {
	panics bool
}

func (e *fakeEngine) Analyze(ctx context.Context, sub intake.Submission) analysis.RawAnalysis {
	if e.panics {
		panic("engine exploded")
	}
	return analysis.RawAnalysis{}
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, audit *models.Audit, result *models.AuditResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, audit.ID)
}

func processingAudit(id string) *models.Audit {
	return &models.Audit{
		ID:               id,
		CompanyName:      "Acme Corp",
		Industry:         "Manufacturing",
		CompanySize:      "medium",
		CurrentProcesses: []string{"invoicing"},
		PainPoints:       []string{"manual work"},
		AutomationGoals:  []string{"save time"},
		ContactEmail:     "ops@acme.example",
		ContactName:      "Jane Doe",
		Status:           models.AuditStatusProcessing,
	}
}

// ---------------------------------------------------------------------------
// Process
// ---------------------------------------------------------------------------

func TestProcess_CompletesAndDispatches(t *testing.T) {
	store := &fakeStore{}
	disp := &fakeDispatcher{}
	p := NewProcessor(&fakeEngine{}, store, disp)

	p.Process(context.Background(), processingAudit("audit-1"))

	if len(store.completed) != 1 || store.completed[0] != "audit-1" {
		t.Errorf("completed = %v, want [audit-1]", store.completed)
	}
	if len(store.failed) != 0 {
		t.Errorf("failed = %v, want none", store.failed)
	}
	if len(disp.dispatched) != 1 || disp.dispatched[0] != "audit-1" {
		t.Errorf("dispatched = %v, want [audit-1]", disp.dispatched)
	}
}

func TestProcess_PersistenceFailureMarksFailed(t *testing.T) {
	store := &fakeStore{completeErr: errors.New("db down")}
	disp := &fakeDispatcher{}
	p := NewProcessor(&fakeEngine{}, store, disp)

	p.Process(context.Background(), processingAudit("audit-1"))

	if len(store.failed) != 1 || store.failed[0] != "audit-1" {
		t.Errorf("failed = %v, want [audit-1]", store.failed)
	}
	if len(disp.dispatched) != 0 {
		t.Errorf("dispatched = %v, want none on failure", disp.dispatched)
	}
}

func TestProcess_PanicRecovered(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(&fakeEngine{panics: true}, store, nil)

	// Must not propagate the panic
	p.Process(context.Background(), processingAudit("audit-1"))

	if len(store.failed) != 1 {
		t.Errorf("failed = %v, want [audit-1]", store.failed)
	}
	if len(store.completed) != 0 {
		t.Errorf("completed = %v, want none", store.completed)
	}
}

func TestProcess_NilDispatcher(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(&fakeEngine{}, store, nil)

	p.Process(context.Background(), processingAudit("audit-1"))

	if len(store.completed) != 1 {
		t.Errorf("completed = %v, want [audit-1]", store.completed)
	}
}

func TestSubmissionFromAudit(t *testing.T) {
	audit := processingAudit("audit-1")
	phone := "+1 555 0100"
	audit.ContactPhone = &phone

	sub := submissionFromAudit(audit)
	if sub.CompanyName != audit.CompanyName {
		t.Errorf("CompanyName = %q, want %q", sub.CompanyName, audit.CompanyName)
	}
	if sub.ContactPhone == nil || *sub.ContactPhone != phone {
		t.Errorf("ContactPhone = %v, want %q", sub.ContactPhone, phone)
	}
	if len(sub.CurrentProcesses) != 1 {
		t.Errorf("CurrentProcesses = %v", sub.CurrentProcesses)
	}
}
