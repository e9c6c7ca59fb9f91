package drawdown

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"portfoliorisk/internal/config"
	"portfoliorisk/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Engine computes drawdown analytics over an ascending snapshot window.
// Every method is a pure pass over its input: no I/O, no shared state, safe
// to call concurrently. Inputs must be ascending by date with unique dates;
// the memoization layer validates that once per load.
type Engine struct {
	Config config.AnalyticsConfig
	Logger *zap.Logger
}

// CurrentDrawdown measures the distance from the window's peak to its last
// snapshot. The peak is the maximum total value over the whole window (first
// occurrence wins on ties), not the running maximum UnderwaterCurve uses;
// the two definitions only differ when the maximum lands after the final
// element, and both are kept deliberately.
func (e *Engine) CurrentDrawdown(snaps []models.Snapshot) models.CurrentDrawdown {
	if len(snaps) == 0 {
		return models.CurrentDrawdown{
			DrawdownPct:    decimal.Zero,
			DrawdownAmount: decimal.Zero,
			PeakValue:      decimal.Zero,
			CurrentValue:   decimal.Zero,
		}
	}

	peak := snaps[0].TotalValue
	peakDate := snaps[0].SnapshotDate
	for _, s := range snaps[1:] {
		if s.TotalValue.GreaterThan(peak) {
			peak = s.TotalValue
			peakDate = s.SnapshotDate
		}
	}

	last := snaps[len(snaps)-1]
	amount := peak.Sub(last.TotalValue)
	pct := decimal.Zero
	if peak.GreaterThan(decimal.Zero) {
		pct = amount.Div(peak).Mul(hundred)
	}
	days := 0
	if amount.GreaterThan(decimal.Zero) {
		days = daysBetween(peakDate, last.SnapshotDate)
	}

	pd := peakDate
	cd := last.SnapshotDate
	return models.CurrentDrawdown{
		DrawdownPct:    pct,
		DrawdownAmount: amount,
		PeakValue:      peak,
		PeakDate:       &pd,
		CurrentValue:   last.TotalValue,
		CurrentDate:    &cd,
		DaysInDrawdown: days,
	}
}

// Events scans the window once with a two-state machine. A leg opens when a
// value drops strictly below the running peak and closes when a later value
// meets or exceeds that peak (a tie counts as full recovery). Only legs whose
// deepest point met thresholdPct are reported; a leg still open at the end of
// the window is reported with nil recovery fields.
func (e *Engine) Events(snaps []models.Snapshot, thresholdPct decimal.Decimal) []models.DrawdownEvent {
	if len(snaps) < 2 {
		return nil
	}

	var events []models.DrawdownEvent

	peak := snaps[0].TotalValue
	peakDate := snaps[0].SnapshotDate
	inDrawdown := false
	var trough decimal.Decimal
	var troughDate time.Time
	maxPct := decimal.Zero

	for _, s := range snaps[1:] {
		v := s.TotalValue
		if !inDrawdown {
			if v.LessThan(peak) {
				inDrawdown = true
				trough = v
				troughDate = s.SnapshotDate
				maxPct = drawdownPct(peak, v)
			} else if v.GreaterThan(peak) {
				peak = v
				peakDate = s.SnapshotDate
			}
			continue
		}

		if v.GreaterThanOrEqual(peak) {
			if maxPct.GreaterThanOrEqual(thresholdPct) {
				recovery := daysBetween(troughDate, s.SnapshotDate)
				total := daysBetween(peakDate, s.SnapshotDate)
				events = append(events, models.DrawdownEvent{
					PeakValue:      peak,
					PeakDate:       peakDate,
					TroughValue:    trough,
					TroughDate:     troughDate,
					MaxDrawdownPct: maxPct,
					DrawdownAmount: peak.Sub(trough),
					DrawdownDays:   daysBetween(peakDate, troughDate),
					RecoveryDays:   &recovery,
					IsRecovered:    true,
					TotalDays:      &total,
				})
			}
			inDrawdown = false
			peak = v
			peakDate = s.SnapshotDate
			maxPct = decimal.Zero
			continue
		}

		if v.LessThan(trough) {
			trough = v
			troughDate = s.SnapshotDate
		}
		if pct := drawdownPct(peak, v); pct.GreaterThan(maxPct) {
			maxPct = pct
		}
	}

	if inDrawdown && maxPct.GreaterThanOrEqual(thresholdPct) {
		events = append(events, models.DrawdownEvent{
			PeakValue:      peak,
			PeakDate:       peakDate,
			TroughValue:    trough,
			TroughDate:     troughDate,
			MaxDrawdownPct: maxPct,
			DrawdownAmount: peak.Sub(trough),
			DrawdownDays:   daysBetween(peakDate, troughDate),
			IsRecovered:    false,
		})
	}

	return events
}

// UnderwaterCurve yields one point per snapshot against a running peak, so
// the peak sequence is non-decreasing and the pass needs no lookahead.
func (e *Engine) UnderwaterCurve(snaps []models.Snapshot) []models.UnderwaterPoint {
	if len(snaps) == 0 {
		return nil
	}
	out := make([]models.UnderwaterPoint, 0, len(snaps))
	peak := snaps[0].TotalValue
	for _, s := range snaps {
		if s.TotalValue.GreaterThan(peak) {
			peak = s.TotalValue
		}
		out = append(out, models.UnderwaterPoint{
			Date:           s.SnapshotDate,
			DrawdownPct:    drawdownPct(peak, s.TotalValue),
			PortfolioValue: s.TotalValue,
			PeakValue:      peak,
		})
	}
	return out
}

// CheckAlertThresholds compares the current drawdown against both configured
// levels. Warning and critical fire independently: a 22% drawdown against
// warn=15/crit=20 returns both alerts.
func (e *Engine) CheckAlertThresholds(snaps []models.Snapshot, warningPct, criticalPct decimal.Decimal) []models.DrawdownAlert {
	cd := e.CurrentDrawdown(snaps)
	var alerts []models.DrawdownAlert
	if cd.DrawdownPct.GreaterThanOrEqual(warningPct) {
		alerts = append(alerts, alertFrom(cd, models.AlertLevelWarning, warningPct))
	}
	if cd.DrawdownPct.GreaterThanOrEqual(criticalPct) {
		alerts = append(alerts, alertFrom(cd, models.AlertLevelCritical, criticalPct))
	}
	if len(alerts) > 0 && e.Logger != nil {
		e.Logger.Info("drawdown alerts triggered",
			zap.Int("count", len(alerts)),
			zap.String("current_drawdown_pct", cd.DrawdownPct.StringFixed(2)),
		)
	}
	return alerts
}

func alertFrom(cd models.CurrentDrawdown, level string, threshold decimal.Decimal) models.DrawdownAlert {
	return models.DrawdownAlert{
		Level:          level,
		ThresholdPct:   threshold,
		DrawdownPct:    cd.DrawdownPct,
		DrawdownAmount: cd.DrawdownAmount,
		PeakValue:      cd.PeakValue,
		CurrentValue:   cd.CurrentValue,
	}
}

// HistoricalAnalysis reduces the events inside an optional sub-window to an
// aggregate. An empty filtered window yields the all-zero aggregate.
func (e *Engine) HistoricalAnalysis(snaps []models.Snapshot, start, end *time.Time, thresholdPct decimal.Decimal) models.HistoricalAnalysis {
	filtered := filterWindow(snaps, start, end)
	out := models.HistoricalAnalysis{
		MaxDrawdownPct:     decimal.Zero,
		MaxDrawdownAmount:  decimal.Zero,
		AvgDrawdownPct:     decimal.Zero,
		CurrentDrawdownPct: decimal.Zero,
	}
	if len(filtered) == 0 {
		return out
	}

	events := e.Events(filtered, thresholdPct)
	out.Events = events
	out.TotalDrawdownEvents = len(events)
	out.CurrentDrawdownPct = e.CurrentDrawdown(filtered).DrawdownPct

	if len(events) == 0 {
		return out
	}

	sumPct := decimal.Zero
	recoverySum := 0
	recovered := 0
	for _, ev := range events {
		sumPct = sumPct.Add(ev.MaxDrawdownPct)
		if ev.MaxDrawdownPct.GreaterThan(out.MaxDrawdownPct) {
			out.MaxDrawdownPct = ev.MaxDrawdownPct
			out.MaxDrawdownAmount = ev.DrawdownAmount
		}
		if ev.DrawdownDays > out.LongestDrawdownDays {
			out.LongestDrawdownDays = ev.DrawdownDays
		}
		if ev.IsRecovered && ev.RecoveryDays != nil {
			recoverySum += *ev.RecoveryDays
			recovered++
		}
	}
	out.AvgDrawdownPct = sumPct.Div(decimal.NewFromInt(int64(len(events))))
	if recovered > 0 {
		out.AvgRecoveryDays = recoverySum / recovered
	}
	return out
}

func drawdownPct(peak, value decimal.Decimal) decimal.Decimal {
	if peak.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	dd := peak.Sub(value)
	if dd.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return dd.Div(peak).Mul(hundred)
}

func filterWindow(snaps []models.Snapshot, start, end *time.Time) []models.Snapshot {
	if start == nil && end == nil {
		return snaps
	}
	out := make([]models.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if start != nil && s.SnapshotDate.Before(*start) {
			continue
		}
		if end != nil && s.SnapshotDate.After(*end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
