// audit_repository.go implements AuditRepository, the persistence layer for
// assessment requests and their status machine. Status transitions are applied
// with status-guarded UPDATEs so concurrent writers can never skip a state or
// overwrite a terminal status.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/intake"
)

// AuditRepository handles audit database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for admin audit queries
type AuditFilters struct {
	Status      *string
	CompanyName *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create persists a validated submission as a new audit in processing status
// and returns the stored record. The caller receives the id immediately;
// analysis happens asynchronously.
func (r *AuditRepository) Create(ctx context.Context, sub intake.Submission) (*models.Audit, error) {
	now := time.Now().UTC()
	audit := &models.Audit{
		ID:               uuid.New().String(),
		CompanyName:      sub.CompanyName,
		Industry:         sub.Industry,
		CompanySize:      sub.CompanySize,
		CurrentProcesses: sub.CurrentProcesses,
		PainPoints:       sub.PainPoints,
		AutomationGoals:  sub.AutomationGoals,
		BudgetRange:      sub.BudgetRange,
		Timeline:         sub.Timeline,
		ContactEmail:     sub.ContactEmail,
		ContactName:      sub.ContactName,
		ContactPhone:     sub.ContactPhone,
		Status:           models.AuditStatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	processesJSON, err := json.Marshal(audit.CurrentProcesses)
	if err != nil {
		return nil, err
	}
	painPointsJSON, err := json.Marshal(audit.PainPoints)
	if err != nil {
		return nil, err
	}
	goalsJSON, err := json.Marshal(audit.AutomationGoals)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO audits (id, company_name, industry, company_size, current_processes, pain_points, automation_goals,
			budget_range, timeline, contact_email, contact_name, contact_phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.ExecContext(ctx, query,
		audit.ID,
		audit.CompanyName,
		audit.Industry,
		audit.CompanySize,
		processesJSON,
		painPointsJSON,
		goalsJSON,
		audit.BudgetRange,
		audit.Timeline,
		audit.ContactEmail,
		audit.ContactName,
		audit.ContactPhone,
		audit.Status,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return audit, nil
}

const auditColumns = `id, company_name, industry, company_size, current_processes, pain_points, automation_goals,
		budget_range, timeline, contact_email, contact_name, contact_phone, status, created_at, updated_at`

// Get retrieves a single audit by ID
func (r *AuditRepository) Get(ctx context.Context, auditID string) (*models.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`

	audit, err := scanAudit(r.db.QueryRowContext(ctx, query, auditID))
	if err == sql.ErrNoRows {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, err
	}

	return audit, nil
}

// Transition moves an audit from one status to another. The UPDATE is guarded
// on the expected current status, so a lost race surfaces as an
// InvalidTransitionError rather than a silent overwrite.
func (r *AuditRepository) Transition(ctx context.Context, auditID, to string) error {
	from := validSource(to)
	if from == "" {
		return &InvalidTransitionError{AuditID: auditID, To: to}
	}

	query := `
		UPDATE audits SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), auditID, from)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	// The guarded UPDATE matched nothing: either the audit does not exist, or
	// it is in a status the transition does not permit.
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM audits WHERE id = $1`, auditID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrAuditNotFound
	}
	if err != nil {
		return err
	}

	return &InvalidTransitionError{AuditID: auditID, From: current, To: to}
}

// MarkFailed moves a processing audit to failed. A failed audit keeps its
// submission intact so the customer can be contacted or the analysis retried.
func (r *AuditRepository) MarkFailed(ctx context.Context, auditID string) error {
	return r.Transition(ctx, auditID, models.AuditStatusFailed)
}

// CompleteWithResult stores an audit result and moves the audit to completed
// in a single transaction. Either both writes land or neither does: an audit
// can never be completed without a result, and a result row never exists for
// a non-completed audit.
func (r *AuditRepository) CompleteWithResult(ctx context.Context, auditID string, result *models.AuditResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE audits SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := tx.ExecContext(ctx, updateQuery, models.AuditStatusCompleted, time.Now().UTC(), auditID, models.AuditStatusProcessing)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		var current string
		err = tx.QueryRowContext(ctx, `SELECT status FROM audits WHERE id = $1`, auditID).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrAuditNotFound
		}
		if err != nil {
			return err
		}
		return &InvalidTransitionError{AuditID: auditID, From: current, To: models.AuditStatusCompleted}
	}

	result.ID = uuid.New().String()
	result.AuditID = auditID
	result.CreatedAt = time.Now().UTC()

	strengthsJSON, err := json.Marshal(result.Strengths)
	if err != nil {
		return err
	}
	weaknessesJSON, err := json.Marshal(result.Weaknesses)
	if err != nil {
		return err
	}
	opportunitiesJSON, err := json.Marshal(result.Opportunities)
	if err != nil {
		return err
	}
	recommendationsJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return err
	}
	processScoresJSON, err := json.Marshal(result.ProcessScores)
	if err != nil {
		return err
	}
	priorityAreasJSON, err := json.Marshal(result.PriorityAreas)
	if err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO audit_results (id, audit_id, maturity_score, automation_potential, roi_projection,
			implementation_timeline, strengths, weaknesses, opportunities, recommendations,
			process_scores, priority_areas, estimated_savings, implementation_cost, payback_period, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		result.ID,
		result.AuditID,
		result.MaturityScore,
		result.AutomationPotential,
		result.ROIProjection,
		result.ImplementationTimeline,
		strengthsJSON,
		weaknessesJSON,
		opportunitiesJSON,
		recommendationsJSON,
		processScoresJSON,
		priorityAreasJSON,
		result.EstimatedSavings,
		result.ImplementationCost,
		result.PaybackPeriod,
		result.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetResult retrieves the analysis result for an audit. It distinguishes
// "still running" (ErrResultNotReady) from "finished without a result"
// (ErrResultNotFound) so the API can answer 202 versus 404.
func (r *AuditRepository) GetResult(ctx context.Context, auditID string) (*models.AuditResult, error) {
	query := `
		SELECT id, audit_id, maturity_score, automation_potential, roi_projection,
			implementation_timeline, strengths, weaknesses, opportunities, recommendations,
			process_scores, priority_areas, estimated_savings, implementation_cost, payback_period, created_at
		FROM audit_results
		WHERE audit_id = $1
	`

	result := &models.AuditResult{}
	var strengthsJSON, weaknessesJSON, opportunitiesJSON, recommendationsJSON []byte
	var processScoresJSON, priorityAreasJSON []byte

	err := r.db.QueryRowContext(ctx, query, auditID).Scan(
		&result.ID,
		&result.AuditID,
		&result.MaturityScore,
		&result.AutomationPotential,
		&result.ROIProjection,
		&result.ImplementationTimeline,
		&strengthsJSON,
		&weaknessesJSON,
		&opportunitiesJSON,
		&recommendationsJSON,
		&processScoresJSON,
		&priorityAreasJSON,
		&result.EstimatedSavings,
		&result.ImplementationCost,
		&result.PaybackPeriod,
		&result.CreatedAt,
	)
	if err == sql.ErrNoRows {
		audit, auditErr := r.Get(ctx, auditID)
		if auditErr != nil {
			return nil, auditErr
		}
		switch audit.Status {
		case models.AuditStatusPending, models.AuditStatusProcessing:
			return nil, ErrResultNotReady
		default:
			return nil, ErrResultNotFound
		}
	}
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{strengthsJSON, &result.Strengths},
		{weaknessesJSON, &result.Weaknesses},
		{opportunitiesJSON, &result.Opportunities},
		{recommendationsJSON, &result.Recommendations},
		{priorityAreasJSON, &result.PriorityAreas},
	} {
		if pair.raw != nil {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, err
			}
		}
	}
	if processScoresJSON != nil {
		if err := json.Unmarshal(processScoresJSON, &result.ProcessScores); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// List retrieves audits with optional filters and pagination for the admin dashboard
func (r *AuditRepository) List(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.Audit, int, error) {
	countQuery := `SELECT COUNT(*) FROM audits WHERE 1=1`
	query := `SELECT ` + auditColumns + ` FROM audits WHERE 1=1`

	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.Status != nil {
		countQuery += fmt.Sprintf(` AND status = $%d`, paramIndex)
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	if filters.CompanyName != nil {
		countQuery += fmt.Sprintf(` AND company_name ILIKE $%d`, paramIndex)
		query += fmt.Sprintf(` AND company_name ILIKE $%d`, paramIndex)
		args = append(args, "%"+*filters.CompanyName+"%")
		paramIndex++
	}

	if filters.StartDate != nil {
		countQuery += fmt.Sprintf(` AND created_at >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND created_at >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		countQuery += fmt.Sprintf(` AND created_at <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND created_at <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	audits := make([]*models.Audit, 0)
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, 0, err
		}
		audits = append(audits, audit)
	}

	return audits, total, rows.Err()
}

// ReapStale moves audits stuck in processing for longer than the cutoff to
// failed, returning the ids that were flipped. Run periodically so a crashed
// worker never leaves an audit in processing forever.
func (r *AuditRepository) ReapStale(ctx context.Context, before time.Time) ([]string, error) {
	query := `
		UPDATE audits SET status = $1, updated_at = $2
		WHERE status = $3 AND updated_at < $4
		RETURNING id
	`

	rows, err := r.db.QueryContext(ctx, query, models.AuditStatusFailed, time.Now().UTC(), models.AuditStatusProcessing, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAudit(row scanner) (*models.Audit, error) {
	audit := &models.Audit{}
	var processesJSON, painPointsJSON, goalsJSON []byte

	err := row.Scan(
		&audit.ID,
		&audit.CompanyName,
		&audit.Industry,
		&audit.CompanySize,
		&processesJSON,
		&painPointsJSON,
		&goalsJSON,
		&audit.BudgetRange,
		&audit.Timeline,
		&audit.ContactEmail,
		&audit.ContactName,
		&audit.ContactPhone,
		&audit.Status,
		&audit.CreatedAt,
		&audit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{processesJSON, &audit.CurrentProcesses},
		{painPointsJSON, &audit.PainPoints},
		{goalsJSON, &audit.AutomationGoals},
	} {
		if pair.raw != nil {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, err
			}
		}
	}

	return audit, nil
}

// validSource returns the only status an audit may transition to the target
// from, or "" when the target is not a legal destination. The transition
// table itself lives in models.ValidTransition; each destination has exactly
// one legal source, which is what makes the guarded UPDATE possible.
func validSource(to string) string {
	for _, from := range []string{models.AuditStatusPending, models.AuditStatusProcessing} {
		if models.ValidTransition(from, to) {
			return from
		}
	}
	return ""
}
