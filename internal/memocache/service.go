package memocache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"portfoliorisk/internal/drawdown"
	"portfoliorisk/internal/models"
	"portfoliorisk/internal/repository"
)

const defaultTTL = 5 * time.Minute

// Service memoizes drawdown queries. Keys hash {user, method, params};
// payloads are JSON with decimals encoded as exact strings, so values
// round-trip without float drift. Two concurrent misses on the same key may
// both recompute and both write; the computation is deterministic so
// last-write-wins is harmless and no locking guards the compute path.
//
// Anything that writes snapshots must call InvalidateUser afterward or stale
// numbers will be served until the TTL runs out.
type Service struct {
	Store  Store
	Repo   repository.SnapshotRepository
	Engine *drawdown.Engine
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTTL
}

func (s *Service) loadWindow(ctx context.Context, userID uint64, start, end *time.Time) ([]models.Snapshot, error) {
	snaps, err := s.Repo.ListByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if err := drawdown.ValidateAscending(snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// cached wraps one engine call: read-through on hit, compute-and-write on
// miss. A payload that no longer unmarshals is treated as a miss.
func cached[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	var zero T
	if payload, ok, err := s.Store.Get(ctx, key); err == nil && ok {
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
	} else if err != nil && s.Logger != nil {
		s.Logger.Warn("cache read failed", zap.Error(err), zap.String("key", key))
	}

	out, err := compute()
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := s.Store.Set(ctx, key, payload, s.ttl()); err != nil && s.Logger != nil {
		s.Logger.Warn("cache write failed", zap.Error(err), zap.String("key", key))
	}
	return out, nil
}

func rangeParams(start, end *time.Time) map[string]string {
	return map[string]string{
		"start": isoDate(start),
		"end":   isoDate(end),
	}
}

func (s *Service) CurrentDrawdown(ctx context.Context, userID uint64, start, end *time.Time) (models.CurrentDrawdown, error) {
	key := cacheKey(s.Prefix, userID, "current_drawdown", rangeParams(start, end))
	return cached(ctx, s, key, func() (models.CurrentDrawdown, error) {
		snaps, err := s.loadWindow(ctx, userID, start, end)
		if err != nil {
			return models.CurrentDrawdown{}, err
		}
		return s.Engine.CurrentDrawdown(snaps), nil
	})
}

func (s *Service) Events(ctx context.Context, userID uint64, start, end *time.Time, thresholdPct decimal.Decimal) ([]models.DrawdownEvent, error) {
	params := rangeParams(start, end)
	params["threshold_pct"] = thresholdPct.String()
	key := cacheKey(s.Prefix, userID, "drawdown_events", params)
	return cached(ctx, s, key, func() ([]models.DrawdownEvent, error) {
		snaps, err := s.loadWindow(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		return s.Engine.Events(snaps, thresholdPct), nil
	})
}

func (s *Service) UnderwaterCurve(ctx context.Context, userID uint64, start, end *time.Time) ([]models.UnderwaterPoint, error) {
	key := cacheKey(s.Prefix, userID, "underwater_curve", rangeParams(start, end))
	return cached(ctx, s, key, func() ([]models.UnderwaterPoint, error) {
		snaps, err := s.loadWindow(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		return s.Engine.UnderwaterCurve(snaps), nil
	})
}

func (s *Service) HistoricalAnalysis(ctx context.Context, userID uint64, start, end *time.Time, thresholdPct decimal.Decimal) (models.HistoricalAnalysis, error) {
	params := rangeParams(start, end)
	params["threshold_pct"] = thresholdPct.String()
	key := cacheKey(s.Prefix, userID, "historical_analysis", params)
	return cached(ctx, s, key, func() (models.HistoricalAnalysis, error) {
		snaps, err := s.loadWindow(ctx, userID, start, end)
		if err != nil {
			return models.HistoricalAnalysis{}, err
		}
		return s.Engine.HistoricalAnalysis(snaps, nil, nil, thresholdPct), nil
	})
}

// Report computes every drawdown product from a single snapshot load and
// caches the whole bundle under one key. Calling the per-product methods
// instead would issue four identical repository reads.
func (s *Service) Report(ctx context.Context, userID uint64, start, end *time.Time) (models.DrawdownReport, error) {
	key := cacheKey(s.Prefix, userID, "report", rangeParams(start, end))
	return cached(ctx, s, key, func() (models.DrawdownReport, error) {
		snaps, err := s.loadWindow(ctx, userID, start, end)
		if err != nil {
			return models.DrawdownReport{}, err
		}
		cfg := s.Engine.Config
		threshold := decimal.NewFromFloat(cfg.EventThresholdPct)
		report := models.DrawdownReport{
			Current:    s.Engine.CurrentDrawdown(snaps),
			Events:     s.Engine.Events(snaps, threshold),
			Underwater: s.Engine.UnderwaterCurve(snaps),
			Historical: s.Engine.HistoricalAnalysis(snaps, nil, nil, threshold),
			Alerts: s.Engine.CheckAlertThresholds(snaps,
				decimal.NewFromFloat(cfg.WarningThresholdPct),
				decimal.NewFromFloat(cfg.CriticalThresholdPct)),
		}
		return report, nil
	})
}

// InvalidateUser drops every cache entry for the user. Ingestion must call
// this after writing snapshots.
func (s *Service) InvalidateUser(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.Store.DeleteByPrefix(ctx, userKeyPrefix(s.Prefix, userID))
	if err != nil {
		return n, err
	}
	if s.Logger != nil {
		s.Logger.Debug("cache invalidated",
			zap.Uint64("user_id", userID),
			zap.Int64("entries", n),
		)
	}
	return n, nil
}
