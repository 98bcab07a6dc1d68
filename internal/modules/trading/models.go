package trading

import (
	"time"

	"github.com/pipeit/factora/internal/domain"
)

// Allocation is one instrument's slice of the idle funds being deployed.
// Weights across a plan's allocation list sum to 1.
type Allocation struct {
	Symbol       string  `json:"symbol"`
	Weight       float64 `json:"weight"`
	Amount       float64 `json:"amount"` // ETH assigned to this instrument
	Score        float64 `json:"score"`
	CurrentPrice float64 `json:"current_price"`
}

// TradingParameters are the concrete entry/exit/stop levels derived for one
// allocated instrument.
type TradingParameters struct {
	Symbol            string  `json:"symbol"`
	EntryPrice        float64 `json:"entry_price"`
	ExitPrice         float64 `json:"exit_price"`
	StopLoss          float64 `json:"stop_loss"`
	HoldDuration      string  `json:"hold_duration"` // "12-24h", "24-48h" or "48-72h"
	ExpectedProfitPct float64 `json:"expected_profit_pct"`
}

// TradeRecord is one simulated fill inside an execution.
type TradeRecord struct {
	Symbol      string    `json:"symbol"`
	TxHash      string    `json:"tx_hash"`
	EthAmount   float64   `json:"eth_amount"`
	TokenAmount float64   `json:"token_amount"`
	EntryPrice  float64   `json:"entry_price"`
	Status      string    `json:"status"`
	EntryTime   time.Time `json:"entry_time"`
}

// ExecutionDetails records a plan's one and only execution.
type ExecutionDetails struct {
	Timestamp     time.Time     `json:"timestamp"`
	WalletAddress string        `json:"wallet_address"`
	Network       string        `json:"network"`
	Trades        []TradeRecord `json:"trades"`
}

// TradingPlan is a generated idle-funds deployment plan. Executed is
// monotonic false -> true; executing an executed plan returns the stored
// details instead of opening positions again.
type TradingPlan struct {
	PlanID           string                   `json:"plan_id"`
	CreatedAt        time.Time                `json:"created_at"`
	IdleFundsAmount  float64                  `json:"idle_funds_amount"`
	Sentiment        domain.SentimentSnapshot `json:"sentiment"`
	Allocations      []Allocation             `json:"allocations"`
	Parameters       []TradingParameters      `json:"trading_parameters"`
	DraftText        string                   `json:"draft_text,omitempty"`
	ParsedDraft      *ParsedDraft             `json:"parsed_draft,omitempty"`
	Executed         bool                     `json:"executed"`
	ExecutionDetails *ExecutionDetails        `json:"execution_details,omitempty"`
}

// PositionStatus is the lifecycle state of a position.
// The only legal transition is active -> closed.
type PositionStatus string

const (
	PositionStatusActive PositionStatus = "active"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is a simulated holding opened by executing a plan. A position
// only exists for executed plans.
type Position struct {
	PositionID        string         `json:"position_id"`
	PlanID            string         `json:"plan_id"`
	Symbol            string         `json:"symbol"`
	EntryTime         time.Time      `json:"entry_time"`
	TokenAmount       float64        `json:"token_amount"`
	EthAmount         float64        `json:"eth_amount"`
	EntryPrice        float64        `json:"entry_price"`
	ExitTarget        float64        `json:"exit_target"`
	StopLoss          float64        `json:"stop_loss"`
	ExpectedProfitPct float64        `json:"expected_profit_pct"`
	Status            PositionStatus `json:"status"`
	CurrentPrice      float64        `json:"current_price"`
	ProfitLoss        float64        `json:"profit_loss"`     // in ETH
	ProfitLossPct     float64        `json:"profit_loss_pct"` // percent
	ExitPrice         *float64       `json:"exit_price,omitempty"`
	CloseTime         *time.Time     `json:"close_time,omitempty"`
}

// PerformanceReport aggregates realized results over closed positions.
type PerformanceReport struct {
	TotalTrades      int      `json:"total_trades"`
	Wins             int      `json:"wins"`
	Losses           int      `json:"losses"`
	WinRate          float64  `json:"win_rate"` // 0-1
	TotalProfitLoss  float64  `json:"total_profit_loss"`
	AvgReturnPct     float64  `json:"avg_return_pct"`
	ReturnStdDevPct  float64  `json:"return_std_dev_pct"`
	AnnualizedVolPct float64  `json:"annualized_volatility_pct"`
	SharpeRatio      *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdown      *float64 `json:"max_drawdown,omitempty"`
	OpenPositions    int      `json:"open_positions"`
	UnrealizedPL     float64  `json:"unrealized_pl"`
}
