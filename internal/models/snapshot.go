package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one dated observation of a user's portfolio value. Rows are
// written by the external ingestion process; this service only reads them.
// Dates are unique per user and queries return them ascending.
type Snapshot struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;uniqueIndex:idx_snapshots_user_date,priority:1"`
	SnapshotDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_snapshots_user_date,priority:2"`

	TotalValue     decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	CashValue      decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	PositionsValue decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	// Optional figures precomputed at ingestion time. Nullable because older
	// rows predate the ingestion job that fills them.
	DailyPnL       *decimal.Decimal `gorm:"column:daily_pnl;type:numeric(30,10)"`
	DailyPnLPct    *decimal.Decimal `gorm:"column:daily_pnl_pct;type:numeric(20,10)"`
	WeeklyPnL      *decimal.Decimal `gorm:"column:weekly_pnl;type:numeric(30,10)"`
	WeeklyPnLPct   *decimal.Decimal `gorm:"column:weekly_pnl_pct;type:numeric(20,10)"`
	MonthlyPnL     *decimal.Decimal `gorm:"column:monthly_pnl;type:numeric(30,10)"`
	MonthlyPnLPct  *decimal.Decimal `gorm:"column:monthly_pnl_pct;type:numeric(20,10)"`
	YTDPnL         *decimal.Decimal `gorm:"column:ytd_pnl;type:numeric(30,10)"`
	YTDPnLPct      *decimal.Decimal `gorm:"column:ytd_pnl_pct;type:numeric(20,10)"`
	Volatility     *decimal.Decimal `gorm:"type:numeric(20,10)"`
	SharpeRatio    *decimal.Decimal `gorm:"type:numeric(20,10)"`
	MaxDrawdown    *decimal.Decimal `gorm:"type:numeric(20,10)"`
	HighWaterMark  *decimal.Decimal `gorm:"type:numeric(30,10)"`
	DrawdownAmount *decimal.Decimal `gorm:"type:numeric(30,10)"`
	DrawdownPct    *decimal.Decimal `gorm:"type:numeric(20,10)"`
	DaysInDrawdown *int             `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Snapshot) TableName() string {
	return "portfolio_snapshots"
}
