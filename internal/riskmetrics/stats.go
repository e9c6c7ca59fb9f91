package riskmetrics

import (
	"math"
	"sort"

	"portfoliorisk/internal/models"
)

// Float helpers for the statistical internals. Reported values are converted
// back to decimal at the engine boundary.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev uses the n-1 denominator. Returns 0 for fewer than two
// observations.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func sampleCovariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return 0
	}
	mx := mean(xs)
	my := mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}

// dailyReturns converts consecutive snapshot values into simple returns.
// Pairs with a non-positive base value are skipped.
func dailyReturns(snaps []models.Snapshot) []float64 {
	if len(snaps) < 2 {
		return nil
	}
	out := make([]float64, 0, len(snaps)-1)
	for i := 1; i < len(snaps); i++ {
		prev := snaps[i-1].TotalValue.InexactFloat64()
		cur := snaps[i].TotalValue.InexactFloat64()
		if prev <= 0 {
			continue
		}
		out = append(out, cur/prev-1)
	}
	return out
}

// empiricalVaR picks the floor((1-confidence)*n)-th ascending return and
// reports its magnitude as a fraction. Callers enforce the minimum sample
// size and convert to percent.
func empiricalVaR(returns []float64, confidence float64) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - confidence) * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return math.Abs(sorted[idx])
}

// regress fits portfolio returns against benchmark returns, giving beta,
// per-period alpha and r-squared. Nil results signal a degenerate series
// (flat benchmark or flat portfolio).
func regress(portfolio, benchmark []float64) (beta, alpha, rSquared *float64) {
	n := len(portfolio)
	if n < 2 || len(benchmark) != n {
		return nil, nil, nil
	}
	varB := sampleCovariance(benchmark, benchmark)
	if varB == 0 {
		return nil, nil, nil
	}
	cov := sampleCovariance(portfolio, benchmark)
	b := cov / varB
	a := mean(portfolio) - b*mean(benchmark)
	beta = &b
	alpha = &a

	sdP := sampleStdDev(portfolio)
	sdB := sampleStdDev(benchmark)
	if sdP > 0 && sdB > 0 {
		corr := cov / (sdP * sdB)
		r2 := corr * corr
		rSquared = &r2
	}
	return beta, alpha, rSquared
}
