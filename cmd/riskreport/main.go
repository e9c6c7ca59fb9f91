package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfoliorisk/internal/config"
	"portfoliorisk/internal/db"
	"portfoliorisk/internal/drawdown"
	"portfoliorisk/internal/logger"
	"portfoliorisk/internal/memocache"
	"portfoliorisk/internal/models"
	gormrepository "portfoliorisk/internal/repository/gorm"
	"portfoliorisk/internal/riskmetrics"
)

type output struct {
	Drawdown    models.DrawdownReport      `json:"drawdown"`
	Performance *models.PerformanceMetrics `json:"performance"`
	Risk        *models.RiskMetrics        `json:"risk"`
}

func main() {
	userID := flag.Uint64("user", 0, "user id to report on")
	startRaw := flag.String("start", "", "window start (YYYY-MM-DD, optional)")
	endRaw := flag.String("end", "", "window end (YYYY-MM-DD, optional)")
	timeframe := flag.String("timeframe", "custom", "timeframe label for the performance block")
	flag.Parse()

	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "usage: riskreport -user <id> [-start YYYY-MM-DD] [-end YYYY-MM-DD]")
		os.Exit(2)
	}

	cfgPath := os.Getenv("RISK_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if envOnlyRaw := os.Getenv("RISK_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	repo := gormrepository.New(dbConn.Gorm)
	engine := &drawdown.Engine{Config: cfg.Analytics, Logger: log}
	metrics := &riskmetrics.Engine{Repo: repo, Config: cfg.Analytics, Logger: log}

	var store memocache.Store
	if cfg.Cache.Enabled {
		redisStore := memocache.NewRedisStore(cfg.Cache)
		defer redisStore.Close()
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Warn("redis unreachable, falling back to in-process cache", zap.Error(err))
			store = memocache.NewMemoryStore()
		} else {
			store = redisStore
		}
	} else {
		store = memocache.NewMemoryStore()
	}
	cache := &memocache.Service{
		Store:  store,
		Repo:   repo,
		Engine: engine,
		TTL:    cfg.Cache.TTL,
		Prefix: cfg.Cache.KeyPrefix,
		Logger: log,
	}

	start, err := parseDate(*startRaw)
	if err != nil {
		log.Fatal("bad -start", zap.Error(err))
	}
	end, err := parseDate(*endRaw)
	if err != nil {
		log.Fatal("bad -end", zap.Error(err))
	}

	ctx := context.Background()
	report, err := cache.Report(ctx, *userID, start, end)
	if err != nil {
		log.Fatal("drawdown report failed", zap.Error(err))
	}

	out := output{Drawdown: report}
	if start != nil && end != nil {
		perf, err := metrics.ReturnsMetrics(ctx, *userID, *start, *end, *timeframe)
		if err != nil {
			log.Fatal("returns metrics failed", zap.Error(err))
		}
		out.Performance = perf
	}
	risk, err := metrics.RiskMetrics(ctx, *userID, start, end, nil)
	if err != nil {
		log.Fatal("risk metrics failed", zap.Error(err))
	}
	out.Risk = risk

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("encode failed", zap.Error(err))
	}
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
