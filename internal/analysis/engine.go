package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/intake"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// Engine composes the remote and fallback strategies. Analyze never fails:
// when the remote strategy is unavailable or errors for any reason, the
// deterministic fallback produces the result instead. The fallback-on-failure
// path is a requirement, not a convenience: no user-facing audit may dead-end
// because a model provider is down.
type Engine struct {
	remote   Strategy // nil when the remote model is disabled
	fallback Strategy
	timeout  timeoutFunc
}

type timeoutFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// NewEngine builds an engine from analysis configuration. The remote strategy
// is wired only when both the enabled flag and an API key are present.
func NewEngine(cfg *config.AnalysisConfig) *Engine {
	e := &Engine{
		fallback: NewFallbackStrategy(),
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			if cfg.RequestTimeout > 0 {
				return context.WithTimeout(ctx, cfg.RequestTimeout)
			}
			return context.WithCancel(ctx)
		},
	}
	if cfg.Enabled && cfg.APIKey != "" {
		e.remote = NewRemoteStrategy(cfg)
	}
	return e
}

// NewEngineWithStrategies wires explicit strategies; used by tests and by any
// caller that needs a custom remote implementation.
func NewEngineWithStrategies(remote, fallback Strategy) *Engine {
	return &Engine{
		remote:   remote,
		fallback: fallback,
		timeout: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		},
	}
}

// Analyze produces a raw analysis for the submission. The remote strategy runs
// first when configured; on any error the fallback runs. The fallback itself
// cannot fail, so the returned RawAnalysis is always usable.
func (e *Engine) Analyze(ctx context.Context, sub intake.Submission) RawAnalysis {
	if e.remote == nil {
		telemetry.AnalysisFallbackTotal.WithLabelValues("disabled").Inc()
		return e.runFallback(ctx, sub)
	}

	remoteCtx, cancel := e.timeout(ctx)
	defer cancel()

	raw, err := e.remote.Analyze(remoteCtx, sub)
	if err != nil {
		reason := classifyFailure(err)
		telemetry.AnalysisFallbackTotal.WithLabelValues(reason).Inc()
		slog.Warn("remote analysis failed, using fallback",
			"company", sub.CompanyName, "reason", reason, "error", err)
		return e.runFallback(ctx, sub)
	}
	return raw
}

func (e *Engine) runFallback(ctx context.Context, sub intake.Submission) RawAnalysis {
	raw, err := e.fallback.Analyze(ctx, sub)
	if err != nil {
		// The deterministic strategy has no failure modes; reaching this
		// branch means a custom fallback was wired in tests.
		slog.Error("fallback strategy returned error", "error", err)
		return RawAnalysis{}
	}
	return raw
}

// classifyFailure buckets remote failures for the fallback metric.
func classifyFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, ErrUnparseableOutput):
		return "parse"
	default:
		return "transport"
	}
}
