package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Default values applied when fields are absent from the config file.
// Server and storage defaults.
const (
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultStorePath       = "jobtrends.db"
)

// Health index defaults. The three weights must sum to 1; when a
// sub-indicator cannot be computed its weight is redistributed at runtime.
const (
	DefaultHealthWindow    = 3
	DefaultVolumeWeight    = 0.4
	DefaultDiversityWeight = 0.3
	DefaultBreadthWeight   = 0.3
)

// Sentiment band lower edges, applied to the composite health score.
const (
	DefaultVeryStrongMin = 70.0
	DefaultStrongMin     = 55.0
	DefaultStableMin     = 45.0
	DefaultWeakMin       = 30.0
)

// Trend segmentation defaults.
const (
	DefaultTrendWindow      = 3
	DefaultGrowthThreshold  = 0.05
	DefaultDeclineThreshold = 0.05
	DefaultNoiseCeiling     = 0.75
	DefaultTrendConfirm     = 2
)

// Skill clustering and emerging-skill defaults.
const (
	DefaultMinSupport      = 3
	DefaultMinCooccurrence = 2
	DefaultRecentPeriods   = 2
	DefaultMinRecent       = 3
	DefaultEmergingGrowth  = 50.0
)

// Forecasting defaults.
const (
	DefaultSmoothingLevel = 0.3
	DefaultSmoothingTrend = 0.1
	DefaultHorizon        = 3
	DefaultMinPoints      = 6
	DefaultForecastZ      = 1.96
	DefaultBandWidening   = 0.25
	DefaultFallbackWindow = 3
	DefaultFallbackBand   = 0.5
)

// Hiring pattern detection defaults.
const (
	DefaultPatternWindow    = 6
	DefaultPatternThreshold = 2.0
	DefaultPatternMinStd    = 1.0
	DefaultGrowthLookback   = 6
)

// Result cache defaults.
const (
	DefaultCacheTTL   = 15 * time.Minute
	DefaultCacheSweep = time.Minute
)

// Alerting defaults.
const (
	DefaultHealthFloor   = 40.0
	DefaultAlertHistory  = 256
	DefaultAlertCooldown = 15 * time.Minute
	DefaultWebhookRate   = 6.0 // deliveries per minute per endpoint
)

// Remote fetch defaults.
const (
	DefaultFetchRate    = 1.0 // requests per second
	DefaultFetchBurst   = 1
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchLimit   = 100
)

// Config is the top-level configuration for both the daemon and the
// importer. Fields map 1:1 to config.example.yaml.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// LogConfig controls the slog setup.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level string onto a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// ListenAddr is the host:port the REST API, WebSocket feed and metrics
	// endpoint listen on.
	ListenAddr string `yaml:"listen_addr"`

	// ShutdownTimeout bounds graceful HTTP shutdown on SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Auth configures how incoming API requests authenticate.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies API authentication. With mode "none" (or an empty
// resolved token) every request passes through.
type AuthConfig struct {
	// Mode is one of: bearer | none.
	Mode string `yaml:"mode"`

	// TokenEnv is the name of the environment variable that holds the
	// expected bearer token.
	TokenEnv string `yaml:"token_env"`
}

// Token returns the bearer token resolved from the environment.
// Returns empty string if TokenEnv is unset or the variable is not found.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// StoreConfig configures snapshot persistence.
type StoreConfig struct {
	// Path is the filesystem path for the SQLite database file.
	// ":memory:" keeps everything in process memory (used by tests).
	Path string `yaml:"path"`
}

// DatasetConfig points the daemon at a postings file to import at startup.
type DatasetConfig struct {
	// Path is a CSV file of postings. Empty means no file import; the
	// snapshot then comes from the store or the ingest endpoint.
	Path string `yaml:"path"`

	// Watch re-imports and re-analyses whenever the file changes.
	Watch bool `yaml:"watch"`

	// IDPrefix namespaces record IDs assigned to rows without one.
	IDPrefix string `yaml:"id_prefix"`
}

// FetchConfig configures the remote job-board API source used by the
// importer's -fetch mode.
type FetchConfig struct {
	// URL is the job listing endpoint. Empty disables fetching.
	URL string `yaml:"url"`

	// APIKeyEnv is the name of the environment variable holding the API
	// key, sent as a bearer token when non-empty.
	APIKeyEnv string `yaml:"api_key_env"`

	// Rate caps outgoing requests per second; Burst is the limiter burst.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`

	// Timeout bounds one fetch round trip.
	Timeout time.Duration `yaml:"timeout"`

	// Search optionally filters listings server-side.
	Search string `yaml:"search"`

	// Limit caps the number of listings requested.
	Limit int `yaml:"limit"`
}

// APIKey returns the fetch API key resolved from the environment.
func (f FetchConfig) APIKey() string {
	if f.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(f.APIKeyEnv)
}

// AnalysisConfig selects the series to analyse and carries one sub-section
// per engine.
type AnalysisConfig struct {
	// PerType additionally runs trend segmentation and forecasting on each
	// job type's count series, not just the overall series.
	PerType bool `yaml:"per_type"`

	// Start and End override the analysis period range ("2006-01" form).
	// Empty means the observed min/max record date.
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	Health   HealthConfig   `yaml:"health"`
	Trend    TrendConfig    `yaml:"trend"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Forecast ForecastConfig `yaml:"forecast"`
	Pattern  PatternConfig  `yaml:"pattern"`
	Cache    CacheConfig    `yaml:"cache"`
}

// StartPeriod returns the configured range start, false when unset.
func (a AnalysisConfig) StartPeriod() (types.Period, bool) {
	if a.Start == "" {
		return types.Period{}, false
	}
	p, err := types.ParsePeriod(a.Start)
	return p, err == nil
}

// EndPeriod returns the configured range end, false when unset.
func (a AnalysisConfig) EndPeriod() (types.Period, bool) {
	if a.End == "" {
		return types.Period{}, false
	}
	p, err := types.ParsePeriod(a.End)
	return p, err == nil
}

// HealthConfig tunes the market health index.
type HealthConfig struct {
	// Window is the trailing window (periods) for volume momentum and
	// company breadth.
	Window int `yaml:"window"`

	// Sub-indicator weights. They are renormalised over the indicators
	// present in a given period, so only their ratios matter; the
	// defaults sum to 1 for readability.
	VolumeWeight    float64 `yaml:"volume_weight"`
	DiversityWeight float64 `yaml:"diversity_weight"`
	BreadthWeight   float64 `yaml:"breadth_weight"`

	// Sentiment band lower edges, highest first.
	VeryStrongMin float64 `yaml:"very_strong_min"`
	StrongMin     float64 `yaml:"strong_min"`
	StableMin     float64 `yaml:"stable_min"`
	WeakMin       float64 `yaml:"weak_min"`
}

// TrendConfig tunes trend segmentation.
type TrendConfig struct {
	// Window is the number of trailing points for the rolling slope and
	// volatility.
	Window int `yaml:"window"`

	// GrowthThreshold and DeclineThreshold are relative slopes (0.05 =
	// +5% per period). DeclineThreshold is applied negative.
	GrowthThreshold  float64 `yaml:"growth_threshold"`
	DeclineThreshold float64 `yaml:"decline_threshold"`

	// NoiseCeiling is the volatility (coefficient of variation) above
	// which a growth signal is treated as noise.
	NoiseCeiling float64 `yaml:"noise_ceiling"`

	// Confirm is the number of consecutive periods a new signal must
	// persist before the classified state switches. It suppresses
	// single-period spikes in both directions.
	Confirm int `yaml:"confirm"`
}

// ClusterConfig tunes skill clustering and emerging-skill detection.
type ClusterConfig struct {
	// MinSupport is the minimum number of records a skill must appear in
	// to become a graph node.
	MinSupport int `yaml:"min_support"`

	// MinCooccurrence is the minimum co-occurrence count for an edge.
	MinCooccurrence int `yaml:"min_cooccurrence"`

	// RecentPeriods is how many trailing periods count as "recent" for
	// emerging-skill detection; the prior window has the same length.
	RecentPeriods int `yaml:"recent_periods"`

	// MinRecent is the minimum recent-record count for an emerging skill.
	MinRecent int `yaml:"min_recent"`

	// EmergingGrowthPct is the minimum growth percentage.
	EmergingGrowthPct float64 `yaml:"emerging_growth_pct"`
}

// ForecastConfig tunes exponential smoothing forecasts.
type ForecastConfig struct {
	// Level and Trend are the smoothing factors (alpha, beta) in (0, 1].
	Level float64 `yaml:"level"`
	Trend float64 `yaml:"trend"`

	// Horizon is the number of periods to project.
	Horizon int `yaml:"horizon"`

	// MinPoints is the minimum history length for the smoothing path;
	// shorter series use the naive fallback.
	MinPoints int `yaml:"min_points"`

	// Z scales the residual deviation into the confidence band.
	Z float64 `yaml:"z"`

	// Widening grows the band linearly per horizon step (0.25 = +25%
	// of the base band per step after the first).
	Widening float64 `yaml:"widening"`

	// FallbackWindow is the trailing-average length for the naive path.
	FallbackWindow int `yaml:"fallback_window"`

	// FallbackBand sizes the fixed band of the naive path as a fraction
	// of the forecast value.
	FallbackBand float64 `yaml:"fallback_band"`
}

// PatternConfig tunes per-company hiring pattern detection.
type PatternConfig struct {
	// Window is the trailing baseline length (periods).
	Window int `yaml:"window"`

	// Threshold is the deviation, in baseline standard deviations, that
	// opens an event.
	Threshold float64 `yaml:"threshold"`

	// MinStd floors the baseline standard deviation so a perfectly flat
	// history does not make every deviation infinite.
	MinStd float64 `yaml:"min_std"`

	// GrowthLookback is the window (periods) for company growth rates.
	GrowthLookback int `yaml:"growth_lookback"`
}

// CacheConfig tunes engine result memoization.
type CacheConfig struct {
	// Enabled turns memoization off entirely when false.
	Enabled bool `yaml:"enabled"`

	// TTL is how long a memoized engine result stays valid.
	TTL time.Duration `yaml:"ttl"`

	// Sweep is the eviction loop interval.
	Sweep time.Duration `yaml:"sweep"`
}

// AlertsConfig holds threshold crossings, alert rules and webhook targets.
type AlertsConfig struct {
	// HealthFloor fires an alert when the latest health index falls below
	// it. Zero disables the floor crossing.
	HealthFloor float64 `yaml:"health_floor"`

	// HealthCeil fires an informational alert when the latest health index
	// rises above it. Zero disables the ceiling crossing.
	HealthCeil float64 `yaml:"health_ceil"`

	// History is the number of past alerts kept for the API.
	History int `yaml:"history"`

	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines a threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "health_index < 35" or
	// "surge_magnitude > 3". See the alerts package for the field list.
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`

	// RatePerMinute caps deliveries to this endpoint.
	RatePerMinute float64 `yaml:"rate_per_minute"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with every default value. The
// importer uses it directly when run without a config file.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			ListenAddr:      DefaultListenAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Fetch: FetchConfig{
			Rate:    DefaultFetchRate,
			Burst:   DefaultFetchBurst,
			Timeout: DefaultFetchTimeout,
			Limit:   DefaultFetchLimit,
		},
		Analysis: AnalysisConfig{
			PerType: true,
			Health: HealthConfig{
				Window:          DefaultHealthWindow,
				VolumeWeight:    DefaultVolumeWeight,
				DiversityWeight: DefaultDiversityWeight,
				BreadthWeight:   DefaultBreadthWeight,
				VeryStrongMin:   DefaultVeryStrongMin,
				StrongMin:       DefaultStrongMin,
				StableMin:       DefaultStableMin,
				WeakMin:         DefaultWeakMin,
			},
			Trend: TrendConfig{
				Window:           DefaultTrendWindow,
				GrowthThreshold:  DefaultGrowthThreshold,
				DeclineThreshold: DefaultDeclineThreshold,
				NoiseCeiling:     DefaultNoiseCeiling,
				Confirm:          DefaultTrendConfirm,
			},
			Cluster: ClusterConfig{
				MinSupport:        DefaultMinSupport,
				MinCooccurrence:   DefaultMinCooccurrence,
				RecentPeriods:     DefaultRecentPeriods,
				MinRecent:         DefaultMinRecent,
				EmergingGrowthPct: DefaultEmergingGrowth,
			},
			Forecast: ForecastConfig{
				Level:          DefaultSmoothingLevel,
				Trend:          DefaultSmoothingTrend,
				Horizon:        DefaultHorizon,
				MinPoints:      DefaultMinPoints,
				Z:              DefaultForecastZ,
				Widening:       DefaultBandWidening,
				FallbackWindow: DefaultFallbackWindow,
				FallbackBand:   DefaultFallbackBand,
			},
			Pattern: PatternConfig{
				Window:         DefaultPatternWindow,
				Threshold:      DefaultPatternThreshold,
				MinStd:         DefaultPatternMinStd,
				GrowthLookback: DefaultGrowthLookback,
			},
			Cache: CacheConfig{
				Enabled: true,
				TTL:     DefaultCacheTTL,
				Sweep:   DefaultCacheSweep,
			},
		},
		Alerts: AlertsConfig{
			HealthFloor: DefaultHealthFloor,
			History:     DefaultAlertHistory,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}

	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	switch cfg.Server.Auth.Mode {
	case "bearer", "none", "":
	default:
		return fmt.Errorf("server.auth.mode: unknown mode %q", cfg.Server.Auth.Mode)
	}

	a := cfg.Analysis
	if _, ok := a.StartPeriod(); a.Start != "" && !ok {
		return fmt.Errorf("analysis.start: invalid period %q", a.Start)
	}
	if _, ok := a.EndPeriod(); a.End != "" && !ok {
		return fmt.Errorf("analysis.end: invalid period %q", a.End)
	}
	if s, ok := a.StartPeriod(); ok {
		if e, ok := a.EndPeriod(); ok && e.Before(s) {
			return fmt.Errorf("analysis.end %q is before analysis.start %q", a.End, a.Start)
		}
	}

	if a.Health.Window < 1 {
		return fmt.Errorf("analysis.health.window must be positive")
	}
	wsum := a.Health.VolumeWeight + a.Health.DiversityWeight + a.Health.BreadthWeight
	if a.Health.VolumeWeight < 0 || a.Health.DiversityWeight < 0 || a.Health.BreadthWeight < 0 {
		return fmt.Errorf("analysis.health weights must be non-negative")
	}
	if wsum <= 0 || math.IsNaN(wsum) {
		return fmt.Errorf("analysis.health weights must sum to a positive value")
	}

	if a.Trend.Window < 2 {
		return fmt.Errorf("analysis.trend.window must be at least 2")
	}
	if a.Trend.GrowthThreshold < 0 || a.Trend.DeclineThreshold < 0 {
		return fmt.Errorf("analysis.trend thresholds must be non-negative")
	}
	if a.Trend.NoiseCeiling <= 0 {
		return fmt.Errorf("analysis.trend.noise_ceiling must be positive")
	}
	if a.Trend.Confirm < 1 {
		return fmt.Errorf("analysis.trend.confirm must be at least 1")
	}

	if a.Cluster.MinSupport < 1 {
		return fmt.Errorf("analysis.cluster.min_support must be positive")
	}
	if a.Cluster.MinCooccurrence < 1 {
		return fmt.Errorf("analysis.cluster.min_cooccurrence must be positive")
	}
	if a.Cluster.RecentPeriods < 1 {
		return fmt.Errorf("analysis.cluster.recent_periods must be positive")
	}

	if a.Forecast.Level <= 0 || a.Forecast.Level > 1 {
		return fmt.Errorf("analysis.forecast.level must be in (0, 1]")
	}
	if a.Forecast.Trend <= 0 || a.Forecast.Trend > 1 {
		return fmt.Errorf("analysis.forecast.trend must be in (0, 1]")
	}
	if a.Forecast.Horizon < 1 {
		return fmt.Errorf("analysis.forecast.horizon must be positive")
	}
	if a.Forecast.MinPoints < 2 {
		return fmt.Errorf("analysis.forecast.min_points must be at least 2")
	}
	if a.Forecast.FallbackWindow < 1 {
		return fmt.Errorf("analysis.forecast.fallback_window must be positive")
	}

	if a.Pattern.Window < 2 {
		return fmt.Errorf("analysis.pattern.window must be at least 2")
	}
	if a.Pattern.Threshold <= 0 {
		return fmt.Errorf("analysis.pattern.threshold must be positive")
	}
	if a.Pattern.MinStd <= 0 {
		return fmt.Errorf("analysis.pattern.min_std must be positive")
	}
	if a.Pattern.GrowthLookback < 2 {
		return fmt.Errorf("analysis.pattern.growth_lookback must be at least 2")
	}

	if a.Cache.Enabled {
		if a.Cache.TTL <= 0 {
			return fmt.Errorf("analysis.cache.ttl must be positive")
		}
		if a.Cache.Sweep <= 0 {
			return fmt.Errorf("analysis.cache.sweep must be positive")
		}
	}

	if cfg.Alerts.History < 1 {
		return fmt.Errorf("alerts.history must be positive")
	}
	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
		if w.RatePerMinute < 0 {
			return fmt.Errorf("alerts.webhooks[%d]: rate_per_minute must be non-negative", i)
		}
	}

	if cfg.Fetch.Rate <= 0 {
		return fmt.Errorf("fetch.rate must be positive")
	}
	if cfg.Fetch.Burst < 1 {
		return fmt.Errorf("fetch.burst must be at least 1")
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}

	return nil
}
