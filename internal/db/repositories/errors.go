package repositories

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the audit store. Handlers map these to HTTP
// status codes; the pipeline treats anything else as a persistence failure.
var (
	// ErrAuditNotFound is returned for reads and transitions on unknown audit ids.
	ErrAuditNotFound = errors.New("audit not found")

	// ErrResultNotReady is returned when a result is requested for an audit
	// that is still pending or processing. It deliberately differs from
	// ErrAuditNotFound: the audit exists, the analysis just hasn't finished.
	ErrResultNotReady = errors.New("audit result not ready")

	// ErrResultNotFound is returned when an audit reached a terminal status
	// without a result (i.e. it failed) or a report is missing.
	ErrResultNotFound = errors.New("audit result not found")

	// ErrReportNotFound is returned when no PDF report exists for an audit.
	ErrReportNotFound = errors.New("pdf report not found")
)

// InvalidTransitionError reports a status-machine violation. It indicates a
// programming or race bug, not a user error: valid callers check the current
// status inside the same transaction that applies the transition.
type InvalidTransitionError struct {
	AuditID string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid audit transition %s -> %s for audit %s", e.From, e.To, e.AuditID)
}
