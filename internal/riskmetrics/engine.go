package riskmetrics

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"portfoliorisk/internal/config"
	"portfoliorisk/internal/drawdown"
	"portfoliorisk/internal/models"
	"portfoliorisk/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// Engine computes return and risk statistics over snapshot windows loaded
// through the repository. Two annualization conventions coexist on purpose:
// total return compounds over calendar days (365) while volatility and the
// ratios scale by trading days (252).
type Engine struct {
	Repo   repository.SnapshotRepository
	Config config.AnalyticsConfig
	Logger *zap.Logger
}

func (e *Engine) loadWindow(ctx context.Context, userID uint64, start, end *time.Time) ([]models.Snapshot, error) {
	snaps, err := e.Repo.ListByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if err := drawdown.ValidateAscending(snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// ReturnsMetrics summarizes a window. Zero snapshots mean "not computable"
// and return (nil, nil); a single snapshot yields a degenerate result with
// zero change so sparse datasets still render.
func (e *Engine) ReturnsMetrics(ctx context.Context, userID uint64, start, end time.Time, timeframe string) (*models.PerformanceMetrics, error) {
	snaps, err := e.loadWindow(ctx, userID, &start, &end)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	first := snaps[0]
	last := snaps[len(snaps)-1]
	out := &models.PerformanceMetrics{
		Timeframe:     timeframe,
		StartDate:     first.SnapshotDate,
		EndDate:       last.SnapshotDate,
		StartingValue: first.TotalValue,
		EndingValue:   last.TotalValue,
		PeriodReturns: map[string]decimal.Decimal{},
	}
	if len(snaps) == 1 {
		out.AbsoluteChange = decimal.Zero
		out.PercentChange = decimal.Zero
		return out, nil
	}

	out.AbsoluteChange = last.TotalValue.Sub(first.TotalValue)
	if first.TotalValue.GreaterThan(decimal.Zero) {
		out.PercentChange = out.AbsoluteChange.Div(first.TotalValue).Mul(hundred)
	} else {
		out.PercentChange = decimal.Zero
	}
	if f := e.annualizedReturnFraction(snaps); f != nil {
		out.AnnualizedReturn = fractionToPct(*f)
	}
	out.Volatility = e.VolatilityOf(snaps, true)
	out.SharpeRatio = e.SharpeOf(snaps)
	if dd, _, _ := MaxDrawdownOf(snaps); dd != nil {
		out.MaxDrawdown = dd
	}

	endDate := last.SnapshotDate
	periods := map[string]time.Time{
		"7d":  endDate.AddDate(0, 0, -7),
		"30d": endDate.AddDate(0, 0, -30),
		"90d": endDate.AddDate(0, 0, -90),
		"1y":  endDate.AddDate(-1, 0, 0),
		"ytd": time.Date(endDate.Year(), 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1),
	}
	for name, from := range periods {
		if pct := trailingReturnPct(snaps, from); pct != nil {
			out.PeriodReturns[name] = *pct
		}
	}

	return out, nil
}

// Volatility of daily simple returns as a percent; needs at least two return
// observations (three snapshots).
func (e *Engine) Volatility(ctx context.Context, userID uint64, start, end *time.Time, annualized bool) (*decimal.Decimal, error) {
	snaps, err := e.loadWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return e.VolatilityOf(snaps, annualized), nil
}

func (e *Engine) SharpeRatio(ctx context.Context, userID uint64, start, end *time.Time) (*decimal.Decimal, error) {
	snaps, err := e.loadWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return e.SharpeOf(snaps), nil
}

func (e *Engine) MaxDrawdown(ctx context.Context, userID uint64, start, end *time.Time) (*decimal.Decimal, error) {
	snaps, err := e.loadWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	dd, _, _ := MaxDrawdownOf(snaps)
	return dd, nil
}

// RiskMetrics composes volatility, Sharpe, Sortino, the worst drawdown with
// its bounding dates, VaR at 95/99 and, when a benchmark daily-return series
// is supplied, beta/alpha/r-squared against it.
func (e *Engine) RiskMetrics(ctx context.Context, userID uint64, start, end *time.Time, benchmark []float64) (*models.RiskMetrics, error) {
	snaps, err := e.loadWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	out := &models.RiskMetrics{
		Volatility:   e.VolatilityOf(snaps, true),
		SharpeRatio:  e.SharpeOf(snaps),
		SortinoRatio: e.SortinoOf(snaps),
		VaR95:        decimal.Zero,
		VaR99:        decimal.Zero,
	}
	dd, peakDate, troughDate := MaxDrawdownOf(snaps)
	out.MaxDrawdown = dd
	out.MaxDrawdownStart = peakDate
	out.MaxDrawdownEnd = troughDate

	returns := dailyReturns(snaps)
	out.VaR95 = e.ValueAtRisk(returns, 0.95)
	out.VaR99 = e.ValueAtRisk(returns, 0.99)

	if len(benchmark) > 0 {
		n := len(returns)
		if len(benchmark) < n {
			n = len(benchmark)
		}
		beta, alpha, r2 := regress(returns[:n], benchmark[:n])
		if beta != nil {
			out.Beta = decimalPtr(decimal.NewFromFloat(*beta))
		}
		if alpha != nil {
			// Per-period alpha scaled to an annual percent.
			annual := *alpha * float64(e.tradingDays()) * 100
			out.Alpha = decimalPtr(decimal.NewFromFloat(annual))
		}
		if r2 != nil {
			out.RSquared = decimalPtr(decimal.NewFromFloat(*r2))
		}
	}

	if e.Logger != nil {
		e.Logger.Debug("risk metrics computed",
			zap.Uint64("user_id", userID),
			zap.Int("snapshots", len(snaps)),
		)
	}
	return out, nil
}

// ValueAtRisk reports the empirical loss quantile as a percent, or zero when
// the sample is smaller than the configured minimum.
func (e *Engine) ValueAtRisk(returns []float64, confidence float64) decimal.Decimal {
	minSamples := e.Config.MinVaRSamples
	if minSamples <= 0 {
		minSamples = 10
	}
	if len(returns) < minSamples {
		return decimal.Zero
	}
	return decimal.NewFromFloat(empiricalVaR(returns, confidence) * 100)
}

// VolatilityOf is the pure form used by ReturnsMetrics and the tests.
func (e *Engine) VolatilityOf(snaps []models.Snapshot, annualized bool) *decimal.Decimal {
	f := e.volatilityFraction(snaps, annualized)
	if f == nil {
		return nil
	}
	return fractionToPct(*f)
}

func (e *Engine) SharpeOf(snaps []models.Snapshot) *decimal.Decimal {
	ret := e.annualizedReturnFraction(snaps)
	vol := e.volatilityFraction(snaps, true)
	if ret == nil || vol == nil || *vol == 0 {
		return nil
	}
	return decimalPtr(decimal.NewFromFloat((*ret - e.Config.RiskFreeRate) / *vol))
}

// SortinoOf is Sharpe with volatility taken from negative daily returns only.
// Nil when there are fewer than two negative returns (no downside to price).
func (e *Engine) SortinoOf(snaps []models.Snapshot) *decimal.Decimal {
	ret := e.annualizedReturnFraction(snaps)
	if ret == nil {
		return nil
	}
	var downside []float64
	for _, r := range dailyReturns(snaps) {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return nil
	}
	sd := sampleStdDev(downside) * math.Sqrt(float64(e.tradingDays()))
	if sd == 0 {
		return nil
	}
	return decimalPtr(decimal.NewFromFloat((*ret - e.Config.RiskFreeRate) / sd))
}

// MaxDrawdownOf runs a single ascending pass with a running peak and returns
// the most negative percent observed (<= 0) plus the dates of the relevant
// peak and trough. Nil for fewer than two snapshots.
func MaxDrawdownOf(snaps []models.Snapshot) (*decimal.Decimal, *time.Time, *time.Time) {
	if len(snaps) < 2 {
		return nil, nil, nil
	}
	peak := snaps[0].TotalValue.InexactFloat64()
	peakDate := snaps[0].SnapshotDate
	worst := 0.0
	var worstPeakDate, worstTroughDate time.Time
	for _, s := range snaps[1:] {
		v := s.TotalValue.InexactFloat64()
		if v > peak {
			peak = v
			peakDate = s.SnapshotDate
			continue
		}
		if peak <= 0 {
			continue
		}
		dd := (v - peak) / peak * 100
		if dd < worst {
			worst = dd
			worstPeakDate = peakDate
			worstTroughDate = s.SnapshotDate
		}
	}
	out := decimal.NewFromFloat(worst)
	if worst == 0 {
		return &out, nil, nil
	}
	return &out, &worstPeakDate, &worstTroughDate
}

func (e *Engine) annualizedReturnFraction(snaps []models.Snapshot) *float64 {
	if len(snaps) < 2 {
		return nil
	}
	first := snaps[0]
	last := snaps[len(snaps)-1]
	days := last.SnapshotDate.Sub(first.SnapshotDate).Hours() / 24
	if days <= 0 {
		return nil
	}
	start := first.TotalValue.InexactFloat64()
	end := last.TotalValue.InexactFloat64()
	if start <= 0 || end <= 0 {
		return nil
	}
	calendarDays := e.Config.CalendarDaysPerYear
	if calendarDays <= 0 {
		calendarDays = 365
	}
	f := math.Pow(end/start, float64(calendarDays)/days) - 1
	return &f
}

func (e *Engine) volatilityFraction(snaps []models.Snapshot, annualized bool) *float64 {
	returns := dailyReturns(snaps)
	if len(returns) < 2 {
		return nil
	}
	sd := sampleStdDev(returns)
	if annualized {
		sd *= math.Sqrt(float64(e.tradingDays()))
	}
	return &sd
}

func (e *Engine) tradingDays() int {
	if e.Config.TradingDaysPerYear > 0 {
		return e.Config.TradingDaysPerYear
	}
	return 252
}

// trailingReturnPct measures the change from the last snapshot dated on or
// before `from` to the end of the window. Nil when the window does not reach
// back that far.
func trailingReturnPct(snaps []models.Snapshot, from time.Time) *decimal.Decimal {
	var base *models.Snapshot
	for i := range snaps {
		if snaps[i].SnapshotDate.After(from) {
			break
		}
		base = &snaps[i]
	}
	if base == nil || base.TotalValue.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	last := snaps[len(snaps)-1]
	pct := last.TotalValue.Sub(base.TotalValue).Div(base.TotalValue).Mul(hundred)
	return &pct
}

func fractionToPct(f float64) *decimal.Decimal {
	return decimalPtr(decimal.NewFromFloat(f * 100))
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
