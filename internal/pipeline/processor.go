package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/xteam-pro/audit-platform/internal/analysis"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/intake"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// auditStore is the slice of the audit repository the processor needs.
type auditStore interface {
	CompleteWithResult(ctx context.Context, auditID string, result *models.AuditResult) error
	MarkFailed(ctx context.Context, auditID string) error
}

// analyzer produces a raw analysis for a submission. Analysis itself never
// fails; the engine falls back to its deterministic strategy on any error.
type analyzer interface {
	Analyze(ctx context.Context, sub intake.Submission) analysis.RawAnalysis
}

// dispatcher handles post-completion side effects.
type dispatcher interface {
	Dispatch(ctx context.Context, audit *models.Audit, result *models.AuditResult)
}

// Processor runs one audit through analyze, normalize, persist, and dispatch.
type Processor struct {
	engine     analyzer
	store      auditStore
	dispatcher dispatcher
}

// NewProcessor wires a Processor. dispatcher may be nil when side effects are
// not wanted (tests, offline tooling).
func NewProcessor(engine analyzer, store auditStore, d dispatcher) *Processor {
	return &Processor{engine: engine, store: store, dispatcher: d}
}

// Process takes an audit already persisted in processing status through to a
// terminal status. Analysis cannot fail (the fallback strategy is total), so
// the only failure path is persistence: a storage error marks the audit
// failed, and the submission stays intact for retry.
//
// A panic anywhere in the flow is recovered, logged, and treated like a
// persistence failure so the worker survives and the audit is not stuck.
func (p *Processor) Process(ctx context.Context, audit *models.Audit) {
	start := time.Now()
	defer func() {
		telemetry.AuditProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("audit processing panicked", "audit_id", audit.ID, "panic", r)
			p.fail(ctx, audit.ID)
		}
	}()

	raw := p.engine.Analyze(ctx, submissionFromAudit(audit))
	result := analysis.Normalize(raw)

	if err := p.store.CompleteWithResult(ctx, audit.ID, &result); err != nil {
		slog.Error("failed to persist audit result", "audit_id", audit.ID, "error", err)
		p.fail(ctx, audit.ID)
		return
	}

	telemetry.AuditsProcessedTotal.WithLabelValues("completed").Inc()
	slog.Info("audit completed",
		"audit_id", audit.ID,
		"maturity_score", result.MaturityScore,
		"automation_potential", result.AutomationPotential,
	)

	if p.dispatcher != nil {
		p.dispatcher.Dispatch(ctx, audit, &result)
	}
}

func (p *Processor) fail(ctx context.Context, auditID string) {
	telemetry.AuditsProcessedTotal.WithLabelValues("failed").Inc()
	if err := p.store.MarkFailed(ctx, auditID); err != nil {
		// The reaper will flip it to failed once it goes stale.
		slog.Error("failed to mark audit failed", "audit_id", auditID, "error", err)
	}
}

// submissionFromAudit reconstructs the validated submission from the stored
// audit row for the analysis engine.
func submissionFromAudit(audit *models.Audit) intake.Submission {
	return intake.Submission{
		CompanyName:      audit.CompanyName,
		Industry:         audit.Industry,
		CompanySize:      audit.CompanySize,
		CurrentProcesses: audit.CurrentProcesses,
		PainPoints:       audit.PainPoints,
		AutomationGoals:  audit.AutomationGoals,
		BudgetRange:      audit.BudgetRange,
		Timeline:         audit.Timeline,
		ContactEmail:     audit.ContactEmail,
		ContactName:      audit.ContactName,
		ContactPhone:     audit.ContactPhone,
	}
}
