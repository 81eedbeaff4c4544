package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xteam-pro/audit-platform/internal/config"
)

type fakeReaperRepo struct {
	mu     sync.Mutex
	sweeps int
	ids    []string
	err    error
}

func (r *fakeReaperRepo) ReapStale(ctx context.Context, before time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps++
	if r.err != nil {
		return nil, r.err
	}
	return r.ids, nil
}

func (r *fakeReaperRepo) sweepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweeps
}

func TestNewStaleAuditReaper_Defaults(t *testing.T) {
	r := NewStaleAuditReaper(&fakeReaperRepo{}, &config.PipelineConfig{})
	if r.staleAfter != 30*time.Minute {
		t.Errorf("staleAfter = %v, want 30m", r.staleAfter)
	}
	if r.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", r.interval)
	}
}

func TestStaleAuditReaper_SweepsImmediatelyAndStops(t *testing.T) {
	repo := &fakeReaperRepo{ids: []string{"audit-1"}}
	r := NewStaleAuditReaper(repo, &config.PipelineConfig{
		StaleAfter:     time.Minute,
		ReaperInterval: time.Hour,
	})

	done := make(chan struct{})
	go func() {
		r.Start(context.Background())
		close(done)
	}()

	// The initial sweep runs before the first tick.
	deadline := time.After(2 * time.Second)
	for repo.sweepCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sweep never ran")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	r.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestStaleAuditReaper_SweepErrorDoesNotCrash(t *testing.T) {
	repo := &fakeReaperRepo{err: errors.New("db down")}
	r := NewStaleAuditReaper(repo, &config.PipelineConfig{
		StaleAfter:     time.Minute,
		ReaperInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	for repo.sweepCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not exit on context cancellation")
	}
}
