package scoring

// ScoredInstrument is a candidate trading instrument with its composite
// desirability score. Transient: recomputed per planning cycle, never stored.
type ScoredInstrument struct {
	Symbol         string  `json:"symbol"`
	Score          float64 `json:"score"`
	TraderGrade    float64 `json:"trader_grade"`
	TAGrade        float64 `json:"ta_grade"`
	SignalStrength float64 `json:"signal_strength"`
	BullBearRatio  float64 `json:"bull_bear_ratio"`
	GradeTrend     float64 `json:"grade_trend"`
	CurrentPrice   float64 `json:"current_price"`
	IsSynthetic    bool    `json:"is_synthetic"`
}
