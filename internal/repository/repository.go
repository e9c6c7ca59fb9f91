package repository

import (
	"context"
	"time"

	"portfoliorisk/internal/models"
)

// SnapshotRepository is the read boundary for valuation snapshots. Every
// listing method returns rows ascending by snapshot date with unique dates
// per user, which is the contract the analytics engines compute against.
//
// Write methods exist for the external ingestion process; any caller that
// writes snapshots must invalidate the user's memoization entries afterward
// or stale drawdown figures will be served until the TTL runs out.
type SnapshotRepository interface {
	ListByUserAndRange(ctx context.Context, userID uint64, start, end *time.Time) ([]models.Snapshot, error)
	GetLatest(ctx context.Context, userID uint64) (*models.Snapshot, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)

	BulkInsert(ctx context.Context, items []models.Snapshot) error
	DeleteByUser(ctx context.Context, userID uint64) (int64, error)
}
