package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// PositionsSchema creates the positions table
const PositionsSchema = `
CREATE TABLE IF NOT EXISTS positions (
    position_id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    entry_time TEXT NOT NULL,
    token_amount REAL NOT NULL,
    eth_amount REAL NOT NULL,
    entry_price REAL NOT NULL,
    exit_target REAL NOT NULL,
    stop_loss REAL NOT NULL,
    expected_profit_pct REAL NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    current_price REAL NOT NULL,
    profit_loss REAL NOT NULL DEFAULT 0,
    profit_loss_pct REAL NOT NULL DEFAULT 0,
    exit_price REAL,
    close_time TEXT,
    FOREIGN KEY (plan_id) REFERENCES plans(plan_id)
);

CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
CREATE INDEX IF NOT EXISTS idx_positions_plan ON positions(plan_id);
`

// InitPositionsSchema ensures the positions table exists
func InitPositionsSchema(db *sql.DB) error {
	_, err := db.Exec(PositionsSchema)
	return err
}

// PositionRepository persists simulated positions.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// Create stores a new active position.
func (r *PositionRepository) Create(pos *Position) error {
	if err := insertPosition(r.db, pos); err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx, so position inserts can
// ride inside the plan execution transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func insertPosition(e execer, pos *Position) error {
	_, err := e.Exec(
		`INSERT INTO positions
		 (position_id, plan_id, symbol, entry_time, token_amount, eth_amount,
		  entry_price, exit_target, stop_loss, expected_profit_pct, status,
		  current_price, profit_loss, profit_loss_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.PositionID,
		pos.PlanID,
		pos.Symbol,
		pos.EntryTime.Format(time.RFC3339),
		pos.TokenAmount,
		pos.EthAmount,
		pos.EntryPrice,
		pos.ExitTarget,
		pos.StopLoss,
		pos.ExpectedProfitPct,
		pos.Status,
		pos.CurrentPrice,
		pos.ProfitLoss,
		pos.ProfitLossPct,
	)
	return err
}

// Get returns a position by id.
func (r *PositionRepository) Get(positionID string) (*Position, error) {
	row := r.db.QueryRow(selectPositionColumns+` FROM positions WHERE position_id = ?`, positionID)

	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: position %s", domain.ErrNotFound, positionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return pos, nil
}

// UpdatePrice refreshes the mark price and unrealized P/L of an active
// position. Closed positions are left untouched.
func (r *PositionRepository) UpdatePrice(positionID string, currentPrice, profitLoss, profitLossPct float64) error {
	result, err := r.db.Exec(
		`UPDATE positions
		 SET current_price = ?, profit_loss = ?, profit_loss_pct = ?
		 WHERE position_id = ? AND status = ?`,
		currentPrice, profitLoss, profitLossPct, positionID, PositionStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update position price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.Get(positionID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: position %s is closed", domain.ErrInvalidState, positionID)
	}

	return nil
}

// Close marks a position closed with its final P/L. The UPDATE is
// conditional on the position still being active, so a position can close
// at most once.
func (r *PositionRepository) Close(positionID string, exitPrice, profitLoss, profitLossPct float64, closeTime time.Time) error {
	result, err := r.db.Exec(
		`UPDATE positions
		 SET status = ?, exit_price = ?, current_price = ?, profit_loss = ?,
		     profit_loss_pct = ?, close_time = ?
		 WHERE position_id = ? AND status = ?`,
		PositionStatusClosed,
		exitPrice,
		exitPrice,
		profitLoss,
		profitLossPct,
		closeTime.Format(time.RFC3339),
		positionID,
		PositionStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.Get(positionID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: position %s already closed", domain.ErrInvalidState, positionID)
	}

	r.log.Info().
		Str("position_id", positionID).
		Float64("exit_price", exitPrice).
		Float64("pl_pct", profitLossPct).
		Msg("Position closed")

	return nil
}

// ListActive returns all open positions, oldest first.
func (r *PositionRepository) ListActive() ([]Position, error) {
	return r.list(`WHERE status = ? ORDER BY entry_time ASC`, PositionStatusActive)
}

// ListClosed returns all closed positions, most recently closed first.
func (r *PositionRepository) ListClosed() ([]Position, error) {
	return r.list(`WHERE status = ? ORDER BY close_time DESC`, PositionStatusClosed)
}

func (r *PositionRepository) list(clause string, args ...interface{}) ([]Position, error) {
	rows, err := r.db.Query(selectPositionColumns+` FROM positions `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	positions := []Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

const selectPositionColumns = `
SELECT position_id, plan_id, symbol, entry_time, token_amount, eth_amount,
       entry_price, exit_target, stop_loss, expected_profit_pct, status,
       current_price, profit_loss, profit_loss_pct, exit_price, close_time`

func scanPosition(row rowScanner) (*Position, error) {
	var pos Position
	var entryTime string
	var exitPrice sql.NullFloat64
	var closeTime sql.NullString

	err := row.Scan(
		&pos.PositionID,
		&pos.PlanID,
		&pos.Symbol,
		&entryTime,
		&pos.TokenAmount,
		&pos.EthAmount,
		&pos.EntryPrice,
		&pos.ExitTarget,
		&pos.StopLoss,
		&pos.ExpectedProfitPct,
		&pos.Status,
		&pos.CurrentPrice,
		&pos.ProfitLoss,
		&pos.ProfitLossPct,
		&exitPrice,
		&closeTime,
	)
	if err != nil {
		return nil, err
	}

	if pos.EntryTime, err = time.Parse(time.RFC3339, entryTime); err != nil {
		return nil, fmt.Errorf("invalid entry_time: %w", err)
	}
	if exitPrice.Valid {
		pos.ExitPrice = &exitPrice.Float64
	}
	if closeTime.Valid {
		parsed, err := time.Parse(time.RFC3339, closeTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid close_time: %w", err)
		}
		pos.CloseTime = &parsed
	}

	return &pos, nil
}
