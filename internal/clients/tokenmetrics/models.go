package tokenmetrics

// TokenMetrics bundles the per-instrument signals the planning pipeline
// consumes: composite grades, the latest signal, analyst sentiment counts and
// a recent close-price series.
type TokenMetrics struct {
	Symbol              string    `json:"symbol"`
	TraderGrade         float64   `json:"trader_grade"`          // 0-100
	PreviousTraderGrade float64   `json:"previous_trader_grade"` // 0-100, one period earlier
	TAGrade             float64   `json:"ta_grade"`              // 0-100
	QuantGrade          float64   `json:"quant_grade"`           // 0-100
	SignalStrength      float64   `json:"signal_strength"`       // 0-1
	TMSignal            int       `json:"tm_signal"`             // -1, 0, 1
	BullishCount        int       `json:"bullish_count"`
	BearishCount        int       `json:"bearish_count"`
	CurrentPrice        float64   `json:"current_price"`
	Closes              []float64 `json:"-"` // daily closes, oldest first
	Synthetic           bool      `json:"synthetic"`
}

// GradeTrend is the change of the trader grade over the last period.
func (m TokenMetrics) GradeTrend() float64 {
	return m.TraderGrade - m.PreviousTraderGrade
}

// API response envelopes. The upstream wraps every payload in {"data": [...]}.

type sentimentRow struct {
	Date                 string  `json:"DATE"`
	MarketSentimentGrade float64 `json:"MARKET_SENTIMENT_GRADE"`
	MarketSentimentLabel string  `json:"MARKET_SENTIMENT_LABEL"`
	LastTMGradeSignal    int     `json:"LAST_TM_GRADE_SIGNAL"`
}

type sentimentResponse struct {
	Data []sentimentRow `json:"data"`
}

type traderGradeRow struct {
	Date        string  `json:"DATE"`
	TraderGrade float64 `json:"TM_TRADER_GRADE"`
	TAGrade     float64 `json:"TA_GRADE"`
	QuantGrade  float64 `json:"QUANT_GRADE"`
}

type traderGradesResponse struct {
	Data []traderGradeRow `json:"data"`
}

type signalRow struct {
	Signal         int     `json:"TRADING_SIGNAL"`
	SignalStrength float64 `json:"SIGNAL_STRENGTH"`
	BullishCount   int     `json:"BULLISH_INDICATOR_COUNT"`
	BearishCount   int     `json:"BEARISH_INDICATOR_COUNT"`
}

type signalsResponse struct {
	Data []signalRow `json:"data"`
}

type ohlcvRow struct {
	Date  string  `json:"DATE"`
	Close float64 `json:"CLOSE"`
}

type ohlcvResponse struct {
	Data []ohlcvRow `json:"data"`
}
