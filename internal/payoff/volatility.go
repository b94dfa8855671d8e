package payoff

import (
	"math"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// =============================================================================
// Realized Volatility
// =============================================================================

const (
	// MinVolatilityPoints 이하이면 fallback move 사용
	MinVolatilityPoints = 10

	// VolatilityWindow is the number of daily returns in the realized estimate
	VolatilityWindow = 30

	// DefaultMove is the fallback scenario move (favorable and adverse)
	DefaultMove = 0.10

	// CryptoPeriodsPerYear / EquityPeriodsPerYear annualize daily returns
	CryptoPeriodsPerYear = 365.0
	EquityPeriodsPerYear = 252.0
)

// RealizedVolatility 일별 종가 기반 30일 실현 변동성 (연환산)
// closes: 오래된 순서의 일별 종가
// Fewer than MinVolatilityPoints usable closes yields a fallback estimate.
func RealizedVolatility(closes []float64, periodsPerYear float64) contracts.Volatility {
	valid := make([]float64, 0, len(closes))
	for _, c := range closes {
		if c > 0 && !math.IsNaN(c) && !math.IsInf(c, 0) {
			valid = append(valid, c)
		}
	}

	if len(valid) < MinVolatilityPoints {
		return contracts.Volatility{Points: len(valid), Source: contracts.VolFallback}
	}

	// 최근 30개 수익률만 사용
	if len(valid) > VolatilityWindow+1 {
		valid = valid[len(valid)-VolatilityWindow-1:]
	}

	returns := make([]float64, 0, len(valid)-1)
	for i := 1; i < len(valid); i++ {
		returns = append(returns, math.Log(valid[i]/valid[i-1]))
	}

	return contracts.Volatility{
		Annualized: StdDev(returns) * math.Sqrt(periodsPerYear),
		Points:     len(valid),
		Source:     contracts.VolRealized,
	}
}

// ScenarioMoves converts an annualized estimate into favorable/adverse
// fractional moves over the holding horizon
func ScenarioMoves(vol contracts.Volatility, holdingDays int) (favorable, adverse float64) {
	if vol.Source != contracts.VolRealized || vol.Annualized <= 0 || holdingDays <= 0 {
		return DefaultMove, DefaultMove
	}

	move := vol.Annualized * math.Sqrt(float64(holdingDays)/365.0)
	return move, move
}

// Mean 평균
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 표본 표준편차
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
