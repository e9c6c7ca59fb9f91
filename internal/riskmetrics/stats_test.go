package riskmetrics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfoliorisk/internal/models"
)

func almostEqual(t *testing.T, got, want, tolerance float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s = %v, want %v (±%v)", label, got, want, tolerance)
	}
}

func TestSampleStdDev(t *testing.T) {
	if sd := sampleStdDev([]float64{1}); sd != 0 {
		t.Fatalf("stddev of one value = %v, want 0", sd)
	}
	// Known: sample stddev of {2,4,4,4,5,5,7,9} with n-1 is ~2.138.
	sd := sampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	almostEqual(t, sd, 2.13809, 1e-4, "sample stddev")
}

func TestDailyReturns(t *testing.T) {
	snaps := testSnaps(t, "2024-01-01", 100, 110, 99)
	returns := dailyReturns(snaps)
	if len(returns) != 2 {
		t.Fatalf("returns = %d, want 2", len(returns))
	}
	almostEqual(t, returns[0], 0.10, 1e-12, "first return")
	almostEqual(t, returns[1], -0.10, 1e-12, "second return")
}

func TestDailyReturns_SkipsNonPositiveBase(t *testing.T) {
	snaps := testSnaps(t, "2024-01-01", 0, 100, 110)
	returns := dailyReturns(snaps)
	if len(returns) != 1 {
		t.Fatalf("returns = %d, want 1 (zero base skipped)", len(returns))
	}
	almostEqual(t, returns[0], 0.10, 1e-12, "return")
}

func TestEmpiricalVaR(t *testing.T) {
	returns := []float64{-0.05, 0.01, -0.04, 0.02, 0.03, 0.01, 0.02, -0.01, 0.00, 0.01,
		0.02, 0.01, 0.03, 0.00, 0.01, 0.02, 0.01, 0.00, 0.02, 0.01}
	// 20 samples at 95%: floor(0.05*20) = index 1 ascending = -0.04.
	almostEqual(t, empiricalVaR(returns, 0.95), 0.04, 1e-12, "VaR 95")
	// At 99%: floor(0.01*20) = index 0 = -0.05.
	almostEqual(t, empiricalVaR(returns, 0.99), 0.05, 1e-12, "VaR 99")
}

func TestRegress(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.03, 0.005, -0.01}
	portfolio := make([]float64, len(bench))
	for i, b := range bench {
		portfolio[i] = 2 * b
	}
	beta, alpha, r2 := regress(portfolio, bench)
	if beta == nil || alpha == nil || r2 == nil {
		t.Fatalf("regress returned nil on well-formed input")
	}
	almostEqual(t, *beta, 2.0, 1e-9, "beta")
	almostEqual(t, *alpha, 0.0, 1e-9, "alpha")
	almostEqual(t, *r2, 1.0, 1e-9, "r-squared")
}

func TestRegress_FlatBenchmark(t *testing.T) {
	beta, alpha, r2 := regress([]float64{0.01, 0.02}, []float64{0.01, 0.01})
	if beta != nil || alpha != nil || r2 != nil {
		t.Fatalf("flat benchmark should give nil results")
	}
}

func testSnaps(t *testing.T, start string, values ...float64) []models.Snapshot {
	t.Helper()
	day, err := time.Parse("2006-01-02", start)
	if err != nil {
		t.Fatalf("bad start date %q: %v", start, err)
	}
	out := make([]models.Snapshot, 0, len(values))
	for i, v := range values {
		out = append(out, models.Snapshot{
			UserID:       1,
			SnapshotDate: day.AddDate(0, 0, i),
			TotalValue:   decimal.NewFromFloat(v),
		})
	}
	return out
}
