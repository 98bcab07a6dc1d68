package trading

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// PlansSchema creates the plans table. Allocation and parameter lists are
// stored as JSON documents; the ledger only ever reads a plan whole.
const PlansSchema = `
CREATE TABLE IF NOT EXISTS plans (
    plan_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    idle_funds_amount REAL NOT NULL,
    sentiment_json TEXT NOT NULL,
    allocations_json TEXT NOT NULL,
    parameters_json TEXT NOT NULL,
    draft_text TEXT,
    parsed_json TEXT,
    executed INTEGER NOT NULL DEFAULT 0,
    execution_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at);
`

// InitPlansSchema ensures the plans table exists
func InitPlansSchema(db *sql.DB) error {
	_, err := db.Exec(PlansSchema)
	return err
}

// PlanRepository is the plan ledger. Plans are created unexecuted and
// flipped to executed at most once; MarkExecuted is a conditional UPDATE so
// only one caller can ever claim a plan.
type PlanRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB, log zerolog.Logger) *PlanRepository {
	return &PlanRepository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// Create stores a freshly generated plan.
func (r *PlanRepository) Create(plan *TradingPlan) error {
	sentimentJSON, err := json.Marshal(plan.Sentiment)
	if err != nil {
		return fmt.Errorf("failed to marshal sentiment: %w", err)
	}
	allocationsJSON, err := json.Marshal(plan.Allocations)
	if err != nil {
		return fmt.Errorf("failed to marshal allocations: %w", err)
	}
	parametersJSON, err := json.Marshal(plan.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	var parsedJSON sql.NullString
	if plan.ParsedDraft != nil {
		raw, err := json.Marshal(plan.ParsedDraft)
		if err != nil {
			return fmt.Errorf("failed to marshal parsed draft: %w", err)
		}
		parsedJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = r.db.Exec(
		`INSERT INTO plans
		 (plan_id, created_at, idle_funds_amount, sentiment_json,
		  allocations_json, parameters_json, draft_text, parsed_json, executed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		plan.PlanID,
		plan.CreatedAt.Format(time.RFC3339),
		plan.IdleFundsAmount,
		string(sentimentJSON),
		string(allocationsJSON),
		string(parametersJSON),
		plan.DraftText,
		parsedJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.log.Info().
		Str("plan_id", plan.PlanID).
		Float64("idle_funds", plan.IdleFundsAmount).
		Int("allocations", len(plan.Allocations)).
		Msg("Plan created")

	return nil
}

// MarkExecuted claims a plan for execution, storing its details and opening
// the given positions in a single transaction. Returns false when the plan
// was already executed; nothing is written in that case. A failed position
// insert rolls the claim back, so a plan is never executed with a partial
// position set.
func (r *PlanRepository) MarkExecuted(planID string, details *ExecutionDetails, opened []Position) (bool, error) {
	executionJSON, err := json.Marshal(details)
	if err != nil {
		return false, fmt.Errorf("failed to marshal execution details: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin execution transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE plans SET executed = 1, execution_json = ? WHERE plan_id = ? AND executed = 0`,
		string(executionJSON),
		planID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark plan executed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for i := range opened {
		if err := insertPosition(tx, &opened[i]); err != nil {
			return false, fmt.Errorf("failed to open position for %s: %w", opened[i].Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit execution: %w", err)
	}

	return true, nil
}

// Get returns a single plan by id.
func (r *PlanRepository) Get(planID string) (*TradingPlan, error) {
	row := r.db.QueryRow(
		`SELECT plan_id, created_at, idle_funds_amount, sentiment_json,
		        allocations_json, parameters_json, draft_text, parsed_json, executed, execution_json
		 FROM plans WHERE plan_id = ?`,
		planID,
	)

	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return plan, nil
}

// List returns all plans, most recent first.
func (r *PlanRepository) List() ([]TradingPlan, error) {
	rows, err := r.db.Query(
		`SELECT plan_id, created_at, idle_funds_amount, sentiment_json,
		        allocations_json, parameters_json, draft_text, parsed_json, executed, execution_json
		 FROM plans ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []TradingPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

func scanPlan(row rowScanner) (*TradingPlan, error) {
	var plan TradingPlan
	var createdAt, sentimentJSON, allocationsJSON, parametersJSON string
	var draftText, parsedJSON, executionJSON sql.NullString
	var executed int

	err := row.Scan(
		&plan.PlanID,
		&createdAt,
		&plan.IdleFundsAmount,
		&sentimentJSON,
		&allocationsJSON,
		&parametersJSON,
		&draftText,
		&parsedJSON,
		&executed,
		&executionJSON,
	)
	if err != nil {
		return nil, err
	}

	if plan.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(sentimentJSON), &plan.Sentiment); err != nil {
		return nil, fmt.Errorf("invalid sentiment_json: %w", err)
	}
	if err := json.Unmarshal([]byte(allocationsJSON), &plan.Allocations); err != nil {
		return nil, fmt.Errorf("invalid allocations_json: %w", err)
	}
	if err := json.Unmarshal([]byte(parametersJSON), &plan.Parameters); err != nil {
		return nil, fmt.Errorf("invalid parameters_json: %w", err)
	}
	if draftText.Valid {
		plan.DraftText = draftText.String
	}
	if parsedJSON.Valid && parsedJSON.String != "" {
		var parsed ParsedDraft
		if err := json.Unmarshal([]byte(parsedJSON.String), &parsed); err != nil {
			return nil, fmt.Errorf("invalid parsed_json: %w", err)
		}
		plan.ParsedDraft = &parsed
	}
	plan.Executed = executed != 0
	if executionJSON.Valid && executionJSON.String != "" {
		var details ExecutionDetails
		if err := json.Unmarshal([]byte(executionJSON.String), &details); err != nil {
			return nil, fmt.Errorf("invalid execution_json: %w", err)
		}
		plan.ExecutionDetails = &details
	}

	return &plan, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
