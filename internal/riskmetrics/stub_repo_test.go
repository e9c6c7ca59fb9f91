package riskmetrics

import (
	"context"
	"time"

	"portfoliorisk/internal/models"
)

// stubRepo serves a fixed window from memory and counts loads.
type stubRepo struct {
	snaps []models.Snapshot
	loads int
}

func (s *stubRepo) ListByUserAndRange(_ context.Context, _ uint64, start, end *time.Time) ([]models.Snapshot, error) {
	s.loads++
	out := make([]models.Snapshot, 0, len(s.snaps))
	for _, snap := range s.snaps {
		if start != nil && snap.SnapshotDate.Before(*start) {
			continue
		}
		if end != nil && snap.SnapshotDate.After(*end) {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *stubRepo) GetLatest(context.Context, uint64) (*models.Snapshot, error) {
	if len(s.snaps) == 0 {
		return nil, nil
	}
	last := s.snaps[len(s.snaps)-1]
	return &last, nil
}

func (s *stubRepo) CountByUser(context.Context, uint64) (int64, error) {
	return int64(len(s.snaps)), nil
}

func (s *stubRepo) BulkInsert(_ context.Context, items []models.Snapshot) error {
	s.snaps = append(s.snaps, items...)
	return nil
}

func (s *stubRepo) DeleteByUser(context.Context, uint64) (int64, error) {
	n := int64(len(s.snaps))
	s.snaps = nil
	return n, nil
}
