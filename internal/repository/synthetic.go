package repository

import (
	"math"
	"math/rand"
	"time"

	"kimchi-arb/internal/dto"
)

const defaultSeed = 42

func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// trendFactor is a slow deterministic oscillation layered on top of the
// random noise so synthetic series drift instead of hovering.
func trendFactor(i int) float64 {
	return math.Sin(float64(i)*0.1) * 0.002
}

// generateSynthetic produces a seeded pseudo-random-walk series with
// deterministic dislocation windows every 8th step (alternating
// direction every 16th) so a strategy under test has exploitable signal
// without any real data. The USDT pair steps daily, BTC hourly.
func generateSynthetic(req dto.MarketDataRequest) []dto.MarketObservation {
	rng := newRNG(req.Seed)

	step := 24 * time.Hour
	if req.Pair == dto.PairBTC {
		step = time.Hour
	}

	const baseFX = 1300.0
	const baseBTCUSD = 60000.0

	var obs []dto.MarketObservation
	i := 0
	for ts := req.StartDate; !ts.After(req.EndDate); ts = ts.Add(step) {
		trend := trendFactor(i)
		fx := baseFX * (1 + rng.NormFloat64()*0.005) * (1 + trend)

		var rateA float64
		if req.Pair == dto.PairBTC {
			refUSD := baseBTCUSD * (1 + rng.NormFloat64()*0.008) * (1 + trend)
			rateA = refUSD * fx
		} else {
			rateA = fx
		}
		rateB := rateA * (1 + premiumOffset(i, rng))

		obs = append(obs, dto.MarketObservation{
			Timestamp: ts,
			RateA:     rateA,
			RateB:     rateB,
			Volume:    1_000_000 + rng.Float64()*9_000_000,
			FXRate:    fx,
		})
		i++
	}

	return obs
}

// premiumOffset is the target leg's dislocation from the reference:
// small noise most steps, with an injected arbitrage window every 8th
// step where the leg dislocates by 1.5%, direction flipping every 16th.
func premiumOffset(i int, rng *rand.Rand) float64 {
	noise := rng.NormFloat64() * 0.003
	switch {
	case i%16 == 0:
		return -0.015 + noise
	case i%8 == 0:
		return 0.015 + noise
	default:
		return rng.NormFloat64()*0.005 + noise
	}
}
