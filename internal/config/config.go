package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/roster-cli/internal/classify"
	"github.com/sells-group/roster-cli/internal/match"
	"github.com/sells-group/roster-cli/internal/reconcile"
	"github.com/sells-group/roster-cli/internal/suggest"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig      `yaml:"store" mapstructure:"store"`
	Redis    RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Server   ServerConfig     `yaml:"server" mapstructure:"server"`
	Log      LogConfig        `yaml:"log" mapstructure:"log"`
	Loader   LoaderConfig     `yaml:"loader" mapstructure:"loader"`
	Match    match.Thresholds `yaml:"match" mapstructure:"match"`
	Classify classify.Rules   `yaml:"classify" mapstructure:"classify"`
	Suggest  SuggestConfig    `yaml:"suggest" mapstructure:"suggest"`
	Report   ReportConfig     `yaml:"report" mapstructure:"report"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RedisConfig configures the parsed-roster cache. An empty URL disables it.
type RedisConfig struct {
	URL             string `yaml:"url" mapstructure:"url"`
	TTLHours        int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	KeyPrefix       string `yaml:"key_prefix" mapstructure:"key_prefix"`
	PoolSize        int    `yaml:"pool_size" mapstructure:"pool_size"`
	DialTimeoutSecs int    `yaml:"dial_timeout_secs" mapstructure:"dial_timeout_secs"`
}

// TTL returns the cache entry lifetime.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLHours) * time.Hour
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyMB      int      `yaml:"max_body_mb" mapstructure:"max_body_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoaderConfig configures roster file parsing and remote retrieval.
type LoaderConfig struct {
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	ColumnMap   string `yaml:"column_map" mapstructure:"column_map"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// SuggestConfig configures similarity suggestions.
type SuggestConfig struct {
	MaxBirthDateDays int `yaml:"max_birth_date_days" mapstructure:"max_birth_date_days"`
}

// ReportConfig configures report grouping and output.
type ReportConfig struct {
	Organizations []string `yaml:"organizations" mapstructure:"organizations"`
	Format        string   `yaml:"format" mapstructure:"format"`
}

// EngineOptions converts the matching, classification, suggestion and
// report sections into reconciliation engine options.
func (c *Config) EngineOptions() []reconcile.Option {
	return []reconcile.Option{
		reconcile.WithThresholds(c.Match),
		reconcile.WithRules(c.Classify),
		reconcile.WithSuggestWindow(c.Suggest.MaxBirthDateDays),
		reconcile.WithOrganizations(c.Report.Organizations...),
	}
}

// Load reads configuration from ./config.yaml, when present, and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and environment. An empty path
// falls back to an optional config.yaml in the working directory; a named
// file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	th := match.DefaultThresholds()
	rules := classify.DefaultRules()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster.db")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl_hours", 24)
	v.SetDefault("redis.key_prefix", "roster:")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout_secs", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_mb", 32)
	v.SetDefault("loader.sheet", "")
	v.SetDefault("loader.delimiter", ",")
	v.SetDefault("loader.column_map", "")
	v.SetDefault("loader.timeout_secs", 60)
	v.SetDefault("loader.max_retries", 3)
	v.SetDefault("loader.user_agent", "roster-cli/1.0")
	v.SetDefault("match.similar_min_length", th.SimilarMinLength)
	v.SetDefault("match.similar_prefix_length", th.SimilarPrefixLength)
	v.SetDefault("match.similar_min_overlap", th.SimilarMinOverlap)
	v.SetDefault("match.lenient_max_length_diff", th.LenientMaxLengthDiff)
	v.SetDefault("match.lenient_min_overlap_ratio", th.LenientMinOverlapRatio)
	v.SetDefault("match.fuzzy_birth_date_guard", th.FuzzyBirthDateGuard)
	v.SetDefault("classify.resign_tolerance_days", rules.ResignToleranceDays)
	v.SetDefault("classify.hire_tolerance_days", rules.HireToleranceDays)
	v.SetDefault("classify.umbrella_institutions", rules.UmbrellaInstitutions)
	v.SetDefault("classify.lifecycle_end_statuses", rules.LifecycleEndStatuses)
	v.SetDefault("classify.active_statuses", rules.ActiveStatuses)
	v.SetDefault("classify.job_type_prefixes", rules.JobTypePrefixes)
	v.SetDefault("classify.umbrella_restricted_job_types", rules.UmbrellaRestrictedJobTypes)
	v.SetDefault("suggest.max_birth_date_days", suggest.DefaultMaxBirthDateDays)
	v.SetDefault("report.organizations", []string{})
	v.SetDefault("report.format", "table")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "reconcile", "serve" and "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "reconcile":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "runs":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Match.LenientMinOverlapRatio < 0 || c.Match.LenientMinOverlapRatio > 1 {
		errs = append(errs, "match.lenient_min_overlap_ratio must be between 0 and 1")
	}
	if c.Classify.ResignToleranceDays < 0 || c.Classify.HireToleranceDays < 0 {
		errs = append(errs, "classify tolerance days must be >= 0")
	}
	if c.Loader.MaxRetries < 0 {
		errs = append(errs, "loader.max_retries must be >= 0")
	}
	if c.Loader.TimeoutSecs < 0 {
		errs = append(errs, "loader.timeout_secs must be >= 0")
	}
	if c.Suggest.MaxBirthDateDays < 0 {
		errs = append(errs, "suggest.max_birth_date_days must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
