package tokenmetrics

import (
	"hash/fnv"
	"math/rand"
)

// Synthetic derives stable pseudo-metrics for a symbol when the live feed has
// nothing for it. The generator is seeded from an FNV-1a hash of the symbol,
// so repeated calls for the same symbol return identical data until real data
// shows up. Planning output therefore stays stable across retries and demos.
func Synthetic(symbol string) *TokenMetrics {
	rng := rand.New(rand.NewSource(symbolSeed(symbol)))

	traderGrade := 40 + rng.Float64()*50  // 40-90
	taGrade := 35 + rng.Float64()*55      // 35-90
	quantGrade := 30 + rng.Float64()*60   // 30-90
	signalStrength := rng.Float64()*0.7 + 0.2
	bullish := rng.Intn(10)
	bearish := rng.Intn(10)

	tmSignal := 0
	switch {
	case traderGrade > 70:
		tmSignal = 1
	case traderGrade < 50:
		tmSignal = -1
	}

	closes := syntheticCloses(rng)

	return &TokenMetrics{
		Symbol:              symbol,
		TraderGrade:         round2(traderGrade),
		PreviousTraderGrade: round2(traderGrade + (rng.Float64()*10 - 5)),
		TAGrade:             round2(taGrade),
		QuantGrade:          round2(quantGrade),
		SignalStrength:      round2(signalStrength),
		TMSignal:            tmSignal,
		BullishCount:        bullish,
		BearishCount:        bearish,
		CurrentPrice:        closes[len(closes)-1],
		Closes:              closes,
		Synthetic:           true,
	}
}

// syntheticCloses builds a 90-day random walk around a seed-derived base
// price so indicator math (EMA, RSI) has something to chew on.
func syntheticCloses(rng *rand.Rand) []float64 {
	base := 10 + rng.Float64()*2990 // 10-3000

	closes := make([]float64, 90)
	price := base
	for i := range closes {
		drift := (rng.Float64() - 0.48) * 0.03 // slight upward bias
		price *= 1 + drift
		if price < 0.01 {
			price = 0.01
		}
		closes[i] = round2(price)
	}

	return closes
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64())
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
