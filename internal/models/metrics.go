package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceMetrics summarizes a window of snapshots. Pointer fields are nil
// when the window is too short to compute them (a single observation still
// yields a usable struct with zero change and nil annualized figures).
type PerformanceMetrics struct {
	Timeframe        string                     `json:"timeframe"`
	StartDate        time.Time                  `json:"start_date"`
	EndDate          time.Time                  `json:"end_date"`
	StartingValue    decimal.Decimal            `json:"starting_value"`
	EndingValue      decimal.Decimal            `json:"ending_value"`
	AbsoluteChange   decimal.Decimal            `json:"absolute_change"`
	PercentChange    decimal.Decimal            `json:"percent_change"`
	AnnualizedReturn *decimal.Decimal           `json:"annualized_return"`
	Volatility       *decimal.Decimal           `json:"volatility"`
	SharpeRatio      *decimal.Decimal           `json:"sharpe_ratio"`
	MaxDrawdown      *decimal.Decimal           `json:"max_drawdown"`
	PeriodReturns    map[string]decimal.Decimal `json:"period_returns"`
}

// RiskMetrics carries the risk statistics for a window. Beta, alpha and
// r-squared need a caller-supplied benchmark return series and are nil
// otherwise. MaxDrawdown is the most negative percent observed (<= 0).
type RiskMetrics struct {
	Volatility       *decimal.Decimal `json:"volatility"`
	SharpeRatio      *decimal.Decimal `json:"sharpe_ratio"`
	SortinoRatio     *decimal.Decimal `json:"sortino_ratio"`
	MaxDrawdown      *decimal.Decimal `json:"max_drawdown"`
	MaxDrawdownStart *time.Time       `json:"max_drawdown_start"`
	MaxDrawdownEnd   *time.Time       `json:"max_drawdown_end"`
	Beta             *decimal.Decimal `json:"beta"`
	Alpha            *decimal.Decimal `json:"alpha"`
	RSquared         *decimal.Decimal `json:"r_squared"`
	VaR95            decimal.Decimal  `json:"var_95"`
	VaR99            decimal.Decimal  `json:"var_99"`
}
