package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentDrawdown describes how far the latest snapshot sits below the peak
// of the supplied window. The peak here is the maximum over the whole window,
// not a running maximum; see UnderwaterPoint for the sequential variant.
type CurrentDrawdown struct {
	DrawdownPct    decimal.Decimal `json:"current_drawdown_percent"`
	DrawdownAmount decimal.Decimal `json:"current_drawdown_amount"`
	PeakValue      decimal.Decimal `json:"peak_value"`
	PeakDate       *time.Time      `json:"peak_date"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	CurrentDate    *time.Time      `json:"current_date"`
	DaysInDrawdown int             `json:"days_in_drawdown"`
}

// DrawdownEvent is one peak-to-trough leg whose depth met the reporting
// threshold. RecoveryDays and TotalDays are nil while the leg is ongoing.
type DrawdownEvent struct {
	PeakValue      decimal.Decimal `json:"peak_value"`
	PeakDate       time.Time       `json:"peak_date"`
	TroughValue    decimal.Decimal `json:"trough_value"`
	TroughDate     time.Time       `json:"trough_date"`
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_percent"`
	DrawdownAmount decimal.Decimal `json:"drawdown_amount"`
	DrawdownDays   int             `json:"drawdown_days"`
	RecoveryDays   *int            `json:"recovery_days"`
	IsRecovered    bool            `json:"is_recovered"`
	TotalDays      *int            `json:"total_days"`
}

// UnderwaterPoint is one charting sample: drawdown percent against the
// running (non-decreasing) peak at that date.
type UnderwaterPoint struct {
	Date           time.Time       `json:"date"`
	DrawdownPct    decimal.Decimal `json:"drawdown_percent"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	PeakValue      decimal.Decimal `json:"peak_value"`
}

const (
	AlertLevelWarning  = "warning"
	AlertLevelCritical = "critical"
)

// DrawdownAlert is emitted when the current drawdown crosses a configured
// threshold. Warning and critical levels fire independently.
type DrawdownAlert struct {
	Level          string          `json:"level"`
	ThresholdPct   decimal.Decimal `json:"threshold_percent"`
	DrawdownPct    decimal.Decimal `json:"current_drawdown_percent"`
	DrawdownAmount decimal.Decimal `json:"current_drawdown_amount"`
	PeakValue      decimal.Decimal `json:"peak_value"`
	CurrentValue   decimal.Decimal `json:"current_value"`
}

// HistoricalAnalysis aggregates the drawdown events inside a window.
// AvgRecoveryDays averages recovered events only (floor division) and stays 0
// when nothing has recovered, which is indistinguishable from instant
// recovery; consumers that care should inspect Events directly.
type HistoricalAnalysis struct {
	TotalDrawdownEvents int             `json:"total_drawdown_events"`
	MaxDrawdownPct      decimal.Decimal `json:"max_drawdown_percent"`
	MaxDrawdownAmount   decimal.Decimal `json:"max_drawdown_amount"`
	AvgDrawdownPct      decimal.Decimal `json:"average_drawdown_percent"`
	AvgRecoveryDays     int             `json:"average_recovery_days"`
	LongestDrawdownDays int             `json:"longest_drawdown_days"`
	CurrentDrawdownPct  decimal.Decimal `json:"current_drawdown_percent"`
	Events              []DrawdownEvent `json:"events"`
}

// DrawdownReport bundles every drawdown product computed from a single
// snapshot load. It is what the memoization layer caches for the dashboard.
type DrawdownReport struct {
	Current    CurrentDrawdown    `json:"current_drawdown"`
	Events     []DrawdownEvent    `json:"events"`
	Underwater []UnderwaterPoint  `json:"underwater_curve"`
	Historical HistoricalAnalysis `json:"historical_analysis"`
	Alerts     []DrawdownAlert    `json:"alerts"`
}
