package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Version and Revision are injected at build time via ldflags.
var (
	Version  = "dev"
	Revision = "unknown"
)

// Config holds all application configuration.
type Config struct {
	Jellyseerr JellyseerrConfig `mapstructure:"jellyseerr" yaml:"jellyseerr"`
	Chart      ChartConfig      `mapstructure:"chart" yaml:"chart"`
	Requests   RequestsConfig   `mapstructure:"requests" yaml:"requests"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" yaml:"schedule"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// JellyseerrConfig holds the media-request API connection settings.
type JellyseerrConfig struct {
	URL             string  `mapstructure:"url" yaml:"url" validate:"required,url"`
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	Timeout         int     `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxAttempts     int     `mapstructure:"max_attempts" yaml:"max_attempts" validate:"gt=0"`
	RetryBaseMs     int     `mapstructure:"retry_base_ms" yaml:"retry_base_ms"`
	RequestPageSize int     `mapstructure:"request_page_size" yaml:"request_page_size" validate:"gt=0"`
	RateLimit       float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
}

// ChartConfig holds the popularity chart source settings.
type ChartConfig struct {
	URL          string `mapstructure:"url" yaml:"url" validate:"required,url"`
	Limit        int    `mapstructure:"limit" yaml:"limit" validate:"gt=0"`
	UserAgent    string `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	ItemSelector string `mapstructure:"item_selector" yaml:"item_selector"`
}

// RequestsConfig controls how new requests are created.
type RequestsConfig struct {
	Is4K   bool `mapstructure:"is_4k" yaml:"is_4k"`
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// ScheduleConfig controls the outer run loop.
type ScheduleConfig struct {
	IntervalDays int  `mapstructure:"interval_days" yaml:"interval_days" validate:"gt=0"`
	RunOnStart   bool `mapstructure:"run_on_start" yaml:"run_on_start"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
	DebugMode  string `mapstructure:"debug_mode" yaml:"debug_mode" validate:"oneof=SIMPLE VERBOSE"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig holds the status API configuration.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

// validate reports fields by their config key rather than the Go name.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// legacyEnv maps config keys to the unprefixed environment variables the
// container image has always documented.
var legacyEnv = map[string]string{
	"jellyseerr.url":         "JELLYSEERR_URL",
	"jellyseerr.api_key":     "API_KEY",
	"chart.url":              "IMDB_URL",
	"chart.limit":            "MOVIE_LIMIT",
	"schedule.interval_days": "RUN_INTERVAL_DAYS",
	"logging.debug_mode":     "DEBUG_MODE",
	"logging.path":           "LOG_PATH",
	"requests.is_4k":         "IS_4K_REQUEST",
	"requests.dry_run":       "DRY_RUN",
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Jellyseerr: JellyseerrConfig{
			URL:             "http://localhost:5055",
			Timeout:         15,
			MaxAttempts:     3,
			RetryBaseMs:     1000,
			RequestPageSize: 1000,
			RateLimit:       5,
		},
		Chart: ChartConfig{
			URL:          "https://www.imdb.com/chart/moviemeter",
			Limit:        50,
			UserAgent:    defaultUserAgent,
			Timeout:      10,
			ItemSelector: "ul.ipc-metadata-list li.ipc-metadata-list-summary-item a h3",
		},
		Requests: RequestsConfig{
			Is4K: true,
		},
		Schedule: ScheduleConfig{
			IntervalDays: 7,
			RunOnStart:   true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			DebugMode:  "SIMPLE",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.jellyrequest")
	}

	v.SetEnvPrefix("JELLYREQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		// Prefixed variable wins over the legacy name when both are set.
		prefixed := "JELLYREQUEST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Jellyseerr.URL = strings.TrimRight(cfg.Jellyseerr.URL, "/")
	cfg.Logging.DebugMode = strings.ToUpper(cfg.Logging.DebugMode)
	if cfg.Verbose() {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("jellyseerr.url", d.Jellyseerr.URL)
	v.SetDefault("jellyseerr.api_key", d.Jellyseerr.APIKey)
	v.SetDefault("jellyseerr.timeout", d.Jellyseerr.Timeout)
	v.SetDefault("jellyseerr.max_attempts", d.Jellyseerr.MaxAttempts)
	v.SetDefault("jellyseerr.retry_base_ms", d.Jellyseerr.RetryBaseMs)
	v.SetDefault("jellyseerr.request_page_size", d.Jellyseerr.RequestPageSize)
	v.SetDefault("jellyseerr.rate_limit", d.Jellyseerr.RateLimit)

	v.SetDefault("chart.url", d.Chart.URL)
	v.SetDefault("chart.limit", d.Chart.Limit)
	v.SetDefault("chart.user_agent", d.Chart.UserAgent)
	v.SetDefault("chart.timeout", d.Chart.Timeout)
	v.SetDefault("chart.item_selector", d.Chart.ItemSelector)

	v.SetDefault("requests.is_4k", d.Requests.Is4K)
	v.SetDefault("requests.dry_run", d.Requests.DryRun)

	v.SetDefault("schedule.interval_days", d.Schedule.IntervalDays)
	v.SetDefault("schedule.run_on_start", d.Schedule.RunOnStart)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.debug_mode", d.Logging.DebugMode)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
}

// Validate checks the settings the batch cannot run without.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func fieldError(fe validator.FieldError) error {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "url":
		return fmt.Errorf("%s must be a URL, got %q", key, fe.Value())
	case "gt":
		return fmt.Errorf("%s must be positive, got %v", key, fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s=%s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Verbose reports whether DEBUG_MODE=VERBOSE was requested.
func (c *Config) Verbose() bool {
	return strings.EqualFold(c.Logging.DebugMode, "VERBOSE")
}

// Interval returns the time between batch runs.
func (c *ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalDays) * 24 * time.Hour
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redacted returns a copy safe to print, with the API key masked.
func (c Config) Redacted() Config {
	if c.Jellyseerr.APIKey != "" {
		c.Jellyseerr.APIKey = "********"
	}
	return c
}
