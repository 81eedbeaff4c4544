// Package jobs contains the long-running background loops started alongside
// the HTTP server.
//
// stale_audit_reaper.go implements the StaleAuditReaper, which periodically
// flips audits stuck in processing to failed. Workers mark their own audits
// failed on error, but a crashed process or lost database connection can leave
// rows behind; the reaper guarantees every audit eventually reaches a terminal
// status.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// staleReaper is the slice of the audit repository the reaper needs.
type staleReaper interface {
	ReapStale(ctx context.Context, before time.Time) ([]string, error)
}

// StaleAuditReaper periodically fails audits that sat in processing too long.
type StaleAuditReaper struct {
	repo       staleReaper
	staleAfter time.Duration
	interval   time.Duration
	stopChan   chan struct{}
}

// NewStaleAuditReaper creates a reaper from pipeline configuration.
func NewStaleAuditReaper(repo staleReaper, cfg *config.PipelineConfig) *StaleAuditReaper {
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	interval := cfg.ReaperInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &StaleAuditReaper{
		repo:       repo,
		staleAfter: staleAfter,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the reaper loop. It runs one sweep immediately, then repeats on
// the configured interval until ctx is cancelled or Stop is called.
func (r *StaleAuditReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("stale audit reaper started", "stale_after", r.staleAfter, "interval", r.interval)

	r.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-r.stopChan:
			slog.Info("stale audit reaper stopped")
			return
		case <-ctx.Done():
			slog.Info("stale audit reaper context cancelled")
			return
		}
	}
}

// Stop signals the reaper loop to exit.
func (r *StaleAuditReaper) Stop() {
	close(r.stopChan)
}

func (r *StaleAuditReaper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)

	ids, err := r.repo.ReapStale(ctx, cutoff)
	if err != nil {
		slog.Error("stale audit sweep failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	telemetry.StaleAuditsReapedTotal.Add(float64(len(ids)))
	slog.Warn("reaped stale audits", "count", len(ids), "audit_ids", ids)
}
