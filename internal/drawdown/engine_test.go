package drawdown

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfoliorisk/internal/models"
)

func snapsFromValues(t *testing.T, start string, values ...int64) []models.Snapshot {
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
			TotalValue:   decimal.NewFromInt(v),
		})
	}
	return out
}

func TestCurrentDrawdown_EmptyInput(t *testing.T) {
	e := &Engine{}
	cd := e.CurrentDrawdown(nil)
	if !cd.DrawdownPct.IsZero() || !cd.DrawdownAmount.IsZero() || !cd.PeakValue.IsZero() {
		t.Fatalf("empty input should be all-zero, got %+v", cd)
	}
	if cd.PeakDate != nil || cd.CurrentDate != nil {
		t.Fatalf("empty input should have nil dates, got %+v", cd)
	}
}

func TestCurrentDrawdown_SingleSnapshot(t *testing.T) {
	e := &Engine{}
	cd := e.CurrentDrawdown(snapsFromValues(t, "2024-01-01", 100000))
	if !cd.DrawdownPct.IsZero() {
		t.Fatalf("single snapshot drawdown pct = %s, want 0", cd.DrawdownPct)
	}
	if cd.PeakDate == nil || cd.CurrentDate == nil || !cd.PeakDate.Equal(*cd.CurrentDate) {
		t.Fatalf("peak date should equal current date, got peak=%v current=%v", cd.PeakDate, cd.CurrentDate)
	}
	if cd.DaysInDrawdown != 0 {
		t.Fatalf("days in drawdown = %d, want 0", cd.DaysInDrawdown)
	}
}

func TestCurrentDrawdown_PeakIsGlobalMax(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 140, 120, 130, 110)
	cd := e.CurrentDrawdown(snaps)
	if cd.PeakValue.Cmp(decimal.NewFromInt(140)) != 0 {
		t.Fatalf("peak = %s, want 140", cd.PeakValue)
	}
	if cd.DrawdownAmount.Cmp(decimal.NewFromInt(30)) != 0 {
		t.Fatalf("amount = %s, want 30", cd.DrawdownAmount)
	}
	if cd.DaysInDrawdown != 3 {
		t.Fatalf("days in drawdown = %d, want 3", cd.DaysInDrawdown)
	}
}

func TestCurrentDrawdown_PercentBounds(t *testing.T) {
	e := &Engine{}
	cases := [][]int64{
		{100, 90, 80},
		{100, 100, 100},
		{50, 200, 10},
		{100, 120, 150},
	}
	for _, values := range cases {
		cd := e.CurrentDrawdown(snapsFromValues(t, "2024-01-01", values...))
		if cd.DrawdownPct.IsNegative() || cd.DrawdownPct.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("values %v: drawdown pct %s outside [0,100]", values, cd.DrawdownPct)
		}
		atPeak := cd.CurrentValue.Cmp(cd.PeakValue) == 0
		if atPeak != cd.DrawdownPct.IsZero() {
			t.Fatalf("values %v: pct=%s, current=%s peak=%s; zero iff at peak violated",
				values, cd.DrawdownPct, cd.CurrentValue, cd.PeakValue)
		}
	}
}

func TestCurrentDrawdown_ZeroPeakGuard(t *testing.T) {
	e := &Engine{}
	cd := e.CurrentDrawdown(snapsFromValues(t, "2024-01-01", 0, 0))
	if !cd.DrawdownPct.IsZero() {
		t.Fatalf("zero peak should give zero pct, got %s", cd.DrawdownPct)
	}
}

// Scenario from the dashboard acceptance data: one 12.38% leg that recovers
// on a tie with the old peak.
func TestEvents_SingleRecoveredLeg(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01",
		100000, 105000, 102000, 98000, 95000, 92000, 94000, 97000, 105000, 108000)
	events := e.Events(snaps, decimal.NewFromInt(5))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.PeakValue.Cmp(decimal.NewFromInt(105000)) != 0 {
		t.Fatalf("peak = %s, want 105000", ev.PeakValue)
	}
	if ev.TroughValue.Cmp(decimal.NewFromInt(92000)) != 0 {
		t.Fatalf("trough = %s, want 92000", ev.TroughValue)
	}
	if got := ev.MaxDrawdownPct.StringFixed(2); got != "12.38" {
		t.Fatalf("max drawdown pct = %s, want 12.38", got)
	}
	if !ev.IsRecovered {
		t.Fatalf("event should be recovered")
	}
	if ev.RecoveryDays == nil || *ev.RecoveryDays != 3 {
		t.Fatalf("recovery days = %v, want 3", ev.RecoveryDays)
	}
	if ev.DrawdownDays != 4 {
		t.Fatalf("drawdown days = %d, want 4", ev.DrawdownDays)
	}
	if ev.TotalDays == nil || *ev.TotalDays != 7 {
		t.Fatalf("total days = %v, want 7", ev.TotalDays)
	}
}

func TestEvents_OngoingLeg(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 110, 100, 95, 97)
	events := e.Events(snaps, decimal.NewFromInt(5))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.IsRecovered {
		t.Fatalf("leg open at end of window must not be recovered")
	}
	if ev.RecoveryDays != nil || ev.TotalDays != nil {
		t.Fatalf("ongoing event should have nil recovery/total days, got %+v", ev)
	}
	if ev.TroughValue.Cmp(decimal.NewFromInt(95)) != 0 {
		t.Fatalf("trough = %s, want 95", ev.TroughValue)
	}
}

func TestEvents_BelowThresholdDropped(t *testing.T) {
	e := &Engine{}
	// 4% dip, recovered.
	snaps := snapsFromValues(t, "2024-01-01", 100, 96, 100)
	if events := e.Events(snaps, decimal.NewFromInt(5)); len(events) != 0 {
		t.Fatalf("events = %d, want 0 below threshold", len(events))
	}
	if events := e.Events(snaps, decimal.NewFromInt(4)); len(events) != 1 {
		t.Fatalf("threshold is inclusive, want 1 event at exactly 4%%")
	}
}

func TestEvents_MultipleLegs(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01",
		100, 90, 100, 110, 99, 110, 112)
	events := e.Events(snaps, decimal.NewFromInt(5))
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.MaxDrawdownPct.LessThan(decimal.NewFromInt(5)) {
			t.Fatalf("event below threshold leaked through: %s", ev.MaxDrawdownPct)
		}
		if !ev.IsRecovered {
			t.Fatalf("both legs recovered, got %+v", ev)
		}
	}
}

func TestEvents_MonotonicIncreaseHasNone(t *testing.T) {
	e := &Engine{}
	values := make([]int64, 0, 30)
	for i := int64(0); i < 30; i++ {
		values = append(values, 100000+i*500)
	}
	snaps := snapsFromValues(t, "2024-01-01", values...)
	if events := e.Events(snaps, decimal.NewFromFloat(0.1)); len(events) != 0 {
		t.Fatalf("strictly increasing series produced %d events", len(events))
	}
	if cd := e.CurrentDrawdown(snaps); !cd.DrawdownPct.IsZero() {
		t.Fatalf("strictly increasing series has drawdown %s", cd.DrawdownPct)
	}
}

func TestUnderwaterCurve(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 120, 110, 130, 125)
	curve := e.UnderwaterCurve(snaps)
	if len(curve) != len(snaps) {
		t.Fatalf("curve length = %d, want %d", len(curve), len(snaps))
	}
	for i := 1; i < len(curve); i++ {
		if curve[i].PeakValue.LessThan(curve[i-1].PeakValue) {
			t.Fatalf("peak sequence decreased at %d: %s < %s",
				i, curve[i].PeakValue, curve[i-1].PeakValue)
		}
	}
	// Index 2: 110 against running peak 120.
	if got := curve[2].DrawdownPct.StringFixed(4); got != "8.3333" {
		t.Fatalf("curve[2] pct = %s, want 8.3333", got)
	}
	if !curve[0].DrawdownPct.IsZero() || !curve[3].DrawdownPct.IsZero() {
		t.Fatalf("at-peak points must read zero: %+v", curve)
	}
}

func TestCheckAlertThresholds_BothFire(t *testing.T) {
	e := &Engine{}
	// 22% drawdown: 100000 -> 78000.
	snaps := snapsFromValues(t, "2024-01-01", 100000, 78000)
	alerts := e.CheckAlertThresholds(snaps, decimal.NewFromInt(15), decimal.NewFromInt(20))
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want warning and critical", len(alerts))
	}
	if alerts[0].Level != models.AlertLevelWarning || alerts[1].Level != models.AlertLevelCritical {
		t.Fatalf("levels = %s,%s want warning,critical", alerts[0].Level, alerts[1].Level)
	}
}

func TestCheckAlertThresholds_WarningOnly(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100000, 84000)
	alerts := e.CheckAlertThresholds(snaps, decimal.NewFromInt(15), decimal.NewFromInt(20))
	if len(alerts) != 1 || alerts[0].Level != models.AlertLevelWarning {
		t.Fatalf("alerts = %+v, want one warning", alerts)
	}
}

func TestHistoricalAnalysis(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01",
		100000, 105000, 102000, 98000, 95000, 92000, 94000, 97000, 105000, 108000)
	agg := e.HistoricalAnalysis(snaps, nil, nil, decimal.NewFromInt(5))
	if agg.TotalDrawdownEvents != 1 {
		t.Fatalf("total events = %d, want 1", agg.TotalDrawdownEvents)
	}
	if got := agg.MaxDrawdownPct.StringFixed(2); got != "12.38" {
		t.Fatalf("max pct = %s, want 12.38", got)
	}
	if agg.MaxDrawdownAmount.Cmp(decimal.NewFromInt(13000)) != 0 {
		t.Fatalf("max amount = %s, want 13000", agg.MaxDrawdownAmount)
	}
	if agg.AvgRecoveryDays != 3 {
		t.Fatalf("avg recovery days = %d, want 3", agg.AvgRecoveryDays)
	}
	if agg.LongestDrawdownDays != 4 {
		t.Fatalf("longest = %d, want 4", agg.LongestDrawdownDays)
	}
	if !agg.CurrentDrawdownPct.IsZero() {
		t.Fatalf("window ends on a new high, current pct = %s", agg.CurrentDrawdownPct)
	}
}

func TestHistoricalAnalysis_EmptyWindow(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 90)
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	agg := e.HistoricalAnalysis(snaps, &start, nil, decimal.NewFromInt(5))
	if agg.TotalDrawdownEvents != 0 || !agg.MaxDrawdownPct.IsZero() || agg.AvgRecoveryDays != 0 {
		t.Fatalf("empty filtered window should be all-zero, got %+v", agg)
	}
}

func TestHistoricalAnalysis_NoRecoveredEvents(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 80, 82)
	agg := e.HistoricalAnalysis(snaps, nil, nil, decimal.NewFromInt(5))
	if agg.TotalDrawdownEvents != 1 {
		t.Fatalf("total events = %d, want 1", agg.TotalDrawdownEvents)
	}
	if agg.AvgRecoveryDays != 0 {
		t.Fatalf("avg recovery with no recovered events = %d, want 0", agg.AvgRecoveryDays)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := &Engine{}
	snaps := snapsFromValues(t, "2024-01-01", 100, 110, 95, 105, 112, 90)
	first := e.Events(snaps, decimal.NewFromInt(5))
	second := e.Events(snaps, decimal.NewFromInt(5))
	if len(first) != len(second) {
		t.Fatalf("event counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MaxDrawdownPct.Cmp(second[i].MaxDrawdownPct) != 0 {
			t.Fatalf("event %d differs between runs", i)
		}
	}
	cd1 := e.CurrentDrawdown(snaps)
	cd2 := e.CurrentDrawdown(snaps)
	if cd1.DrawdownPct.Cmp(cd2.DrawdownPct) != 0 {
		t.Fatalf("current drawdown differs between runs")
	}
}

func TestValidateAscending(t *testing.T) {
	good := snapsFromValues(t, "2024-01-01", 100, 101, 102)
	if err := ValidateAscending(good); err != nil {
		t.Fatalf("ascending window rejected: %v", err)
	}
	dup := snapsFromValues(t, "2024-01-01", 100, 101)
	dup[1].SnapshotDate = dup[0].SnapshotDate
	if err := ValidateAscending(dup); err == nil {
		t.Fatalf("duplicate dates accepted")
	}
	reversed := snapsFromValues(t, "2024-01-01", 100, 101)
	reversed[0], reversed[1] = reversed[1], reversed[0]
	if err := ValidateAscending(reversed); err == nil {
		t.Fatalf("descending dates accepted")
	}
}
