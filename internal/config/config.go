package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"

	"apollo67-api/pkg/confkit"
	"apollo67-api/pkg/marketdata"
)

type CacheTTL struct {
	Short  int `json:",default=10"` // seconds
	Medium int `json:",default=60"`
	Long   int `json:",default=300"`
}

// StrategyParams are the tunables consumed by downstream strategy code. The
// first five are locked parameters: once CONFIG_LOCK_ENABLED is on, changing
// them through the environment requires CONFIG_OVERRIDE_ENABLED.
type StrategyParams struct {
	EisMinEntryScore          int     `json:",default=67"`
	PortfolioHeatHardCap      float64 `json:",default=0.22"`
	DrawdownHaltPct           float64 `json:",default=0.12"`
	RotationAdvantageRatioMin float64 `json:",default=1.2"`
	CpasTargetUsd             float64 `json:",default=6.0"`
}

type DataQuality struct {
	FreshnessSLASeconds  int     `json:",default=300"`
	CompletenessMinRatio float64 `json:",default=0.98"`
	DriftWarnRatio       float64 `json:",default=0.15"`
	SpikeWarnRatio       float64 `json:",default=0.12"`
}

type SessionCalendar struct {
	Start string `json:",default=09:30"`
	End   string `json:",default=16:00"`
}

type Config struct {
	rest.RestConf
	// Env indicates the running environment: local | dev | prod.
	// Local and dev fall back to an embedded sqlite database file.
	Env         string `json:",default=local"`
	DatabaseURL string `json:",optional,env=DATABASE_URL"`

	Redis redis.RedisConf `json:",optional"`
	TTL   CacheTTL        `json:",optional"`

	JournalDir string `json:",default=var/journal"`

	ConfigLockEnabled     bool `json:",default=true,env=CONFIG_LOCK_ENABLED"`
	ConfigOverrideEnabled bool `json:",optional,env=CONFIG_OVERRIDE_ENABLED"`

	DataProviderPrimary  string `json:",default=stub_primary,env=DATA_PROVIDER_PRIMARY"`
	DataProviderFallback string `json:",default=stub_fallback,env=DATA_PROVIDER_FALLBACK"`

	Strategy StrategyParams  `json:",optional"`
	Quality  DataQuality     `json:",optional"`
	Calendar SessionCalendar `json:",optional"`

	Market confkit.Section[marketdata.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

// lockedParameterDefaults maps the environment names of locked parameters to
// their shipped defaults.
var lockedParameterDefaults = map[string]float64{
	"EIS_MIN_ENTRY_SCORE":          67,
	"PORTFOLIO_HEAT_HARD_CAP":      0.22,
	"DRAWDOWN_HALT_PCT":            0.12,
	"ROTATION_ADVANTAGE_RATIO_MIN": 1.20,
	"CPAS_TARGET_USD":              6.0,
}

func (c *Config) IsLocalEnv() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "local", "dev", "development", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "local"
		}
	default:
		errs = append(errs, "env must be one of local|dev|prod")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		if c.IsLocalEnv() {
			c.DatabaseURL = "sqlite://./apollo67.db"
		} else {
			errs = append(errs, "databaseUrl is required outside local mode (expected postgres://...)")
		}
	}

	if c.Strategy.EisMinEntryScore < 0 || c.Strategy.EisMinEntryScore > 100 {
		errs = append(errs, "strategy.eisMinEntryScore must be between 0 and 100")
	}
	if c.Strategy.PortfolioHeatHardCap <= 0 || c.Strategy.PortfolioHeatHardCap > 1 {
		errs = append(errs, "strategy.portfolioHeatHardCap must be in (0, 1]")
	}
	if c.Strategy.DrawdownHaltPct <= 0 || c.Strategy.DrawdownHaltPct > 1 {
		errs = append(errs, "strategy.drawdownHaltPct must be in (0, 1]")
	}
	if c.Strategy.RotationAdvantageRatioMin < 1.0 {
		errs = append(errs, "strategy.rotationAdvantageRatioMin must be >= 1.0")
	}
	if c.Strategy.CpasTargetUsd <= 0 {
		errs = append(errs, "strategy.cpasTargetUsd must be > 0")
	}
	if c.Quality.FreshnessSLASeconds <= 0 {
		errs = append(errs, "quality.freshnessSlaSeconds must be > 0")
	}
	if c.Quality.CompletenessMinRatio <= 0 || c.Quality.CompletenessMinRatio > 1 {
		errs = append(errs, "quality.completenessMinRatio must be in (0, 1]")
	}
	if strings.TrimSpace(c.DataProviderPrimary) == "" {
		errs = append(errs, "dataProviderPrimary cannot be empty")
	}
	if strings.TrimSpace(c.DataProviderFallback) == "" {
		errs = append(errs, "dataProviderFallback cannot be empty")
	}
	if err := validateClockHHMM("calendar.start", c.Calendar.Start); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateClockHHMM("calendar.end", c.Calendar.End); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateTTL(); err != nil {
		errs = append(errs, err.Error())
	}
	if changed := c.changedLockedParameters(); len(changed) > 0 {
		errs = append(errs, "locked parameters changed without override, set CONFIG_OVERRIDE_ENABLED=true to allow: "+
			strings.Join(changed, ", "))
	}

	if len(errs) > 0 {
		return errors.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// changedLockedParameters returns the locked parameter names whose environment
// values differ numerically from the shipped defaults. Values that fail to
// parse as numbers are compared as trimmed strings.
func (c *Config) changedLockedParameters() []string {
	if !c.ConfigLockEnabled || c.ConfigOverrideEnabled {
		return nil
	}

	var changed []string
	for name, def := range lockedParameterDefaults {
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if raw != strconv.FormatFloat(def, 'f', -1, 64) {
				changed = append(changed, name)
			}
			continue
		}
		if parsed != def {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

func validateClockHHMM(label, value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return fmt.Errorf("%s must be HH:MM format", label)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%s must contain numeric HH:MM values", label)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%s must contain numeric HH:MM values", label)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return fmt.Errorf("%s has invalid time values", label)
	}
	return nil
}

func (c *Config) validateTTL() error {
	if c.TTL.Short <= 0 {
		return errors.New("ttl.short must be positive")
	}
	if c.TTL.Medium <= 0 {
		return errors.New("ttl.medium must be positive")
	}
	if c.TTL.Long <= 0 {
		return errors.New("ttl.long must be positive")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Market.Hydrate(c.baseDir, marketdata.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

// RedactedDatabaseURL masks credentials for operator-facing config views.
// Sqlite URLs carry no credentials and pass through unchanged.
func (c *Config) RedactedDatabaseURL() string {
	raw := c.DatabaseURL
	if !strings.Contains(raw, "://") {
		return "***"
	}
	if strings.HasPrefix(raw, "sqlite:") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	auth := ""
	if parsed.User != nil {
		auth = parsed.User.Username() + ":***@"
	}
	return parsed.Scheme + "://" + auth + parsed.Host + parsed.Path + querySuffix(parsed)
}

func querySuffix(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
