package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type AnalyticsConfig struct {
	// RiskFreeRate is annual, as a fraction (0.02 == 2%).
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	// TradingDaysPerYear annualizes volatility and Sharpe; CalendarDaysPerYear
	// annualizes total return. The two conventions are deliberate and
	// independent.
	TradingDaysPerYear   int     `mapstructure:"trading_days_per_year"`
	CalendarDaysPerYear  int     `mapstructure:"calendar_days_per_year"`
	EventThresholdPct    float64 `mapstructure:"event_threshold_pct"`
	WarningThresholdPct  float64 `mapstructure:"warning_threshold_pct"`
	CriticalThresholdPct float64 `mapstructure:"critical_threshold_pct"`
	MinVaRSamples        int     `mapstructure:"min_var_samples"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "riskcache")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("analytics.risk_free_rate", 0.02)
	v.SetDefault("analytics.trading_days_per_year", 252)
	v.SetDefault("analytics.calendar_days_per_year", 365)
	v.SetDefault("analytics.event_threshold_pct", 5)
	v.SetDefault("analytics.warning_threshold_pct", 10)
	v.SetDefault("analytics.critical_threshold_pct", 20)
	v.SetDefault("analytics.min_var_samples", 10)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
