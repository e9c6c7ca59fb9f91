package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfoliorisk/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListByUserAndRange(ctx context.Context, userID uint64, start, end *time.Time) ([]models.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Snapshot{}).
		Where("user_id = ?", userID)
	if start != nil && !start.IsZero() {
		query = query.Where("snapshot_date >= ?", *start)
	}
	if end != nil && !end.IsZero() {
		query = query.Where("snapshot_date <= ?", *end)
	}
	var items []models.Snapshot
	if err := query.Order("snapshot_date ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetLatest(ctx context.Context, userID uint64) (*models.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Snapshot
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("snapshot_date DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Snapshot{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// BulkInsert upserts on (user_id, snapshot_date) so the ingestion process can
// re-run a day without tripping the unique index.
func (s *Store) BulkInsert(ctx context.Context, items []models.Snapshot) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_value",
			"cash_value",
			"positions_value",
			"daily_pnl",
			"daily_pnl_pct",
			"weekly_pnl",
			"weekly_pnl_pct",
			"monthly_pnl",
			"monthly_pnl_pct",
			"ytd_pnl",
			"ytd_pnl_pct",
			"volatility",
			"sharpe_ratio",
			"max_drawdown",
			"high_water_mark",
			"drawdown_amount",
			"drawdown_pct",
			"days_in_drawdown",
		}),
	}).CreateInBatches(items, 500).Error
}

func (s *Store) DeleteByUser(ctx context.Context, userID uint64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Snapshot{})
	return res.RowsAffected, res.Error
}
