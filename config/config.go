package config

import (
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type ConsoleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SendConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TransportConfig struct {
	Timeout          string            `mapstructure:"timeout"`
	QueueSize        int               `mapstructure:"queue_size"`
	Workers          int               `mapstructure:"workers"`
	RateLimit        float64           `mapstructure:"rate_limit"`
	RateBurst        int               `mapstructure:"rate_burst"`
	BreakerThreshold int               `mapstructure:"breaker_threshold"`
	BreakerReset     string            `mapstructure:"breaker_reset"`
	Headers          map[string]string `mapstructure:"headers"`
}

// LoggingConfig configures the diagnostics logger, not the shipped logs.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	AddSource bool   `mapstructure:"add_source"`
}

type MetricsConfig struct {
	Address    string `mapstructure:"address"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// ShipConfig drives the logship command.
type ShipConfig struct {
	Level  string `mapstructure:"level"`
	Source string `mapstructure:"source"`
}

type Config struct {
	Endpoint      string            `mapstructure:"endpoint"`
	Environment   string            `mapstructure:"environment"`
	Console       ConsoleConfig     `mapstructure:"console"`
	Send          SendConfig        `mapstructure:"send"`
	DefaultParams map[string]any    `mapstructure:"default_params"`
	Colors        map[string]string `mapstructure:"colors"`
	Transport     TransportConfig   `mapstructure:"transport"`
	Logging       LoggingConfig     `mapstructure:"logging"`
	Metrics       MetricsConfig     `mapstructure:"metrics"`
	Ship          ShipConfig        `mapstructure:"ship"`
}

// Load reads remotelog.yaml from the given directories (default ./config
// and .), then applies REMOTELOG_* environment overrides, e.g.
// REMOTELOG_TRANSPORT_QUEUE_SIZE. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("endpoint", "")
	v.SetDefault("environment", EnvDev)
	v.SetDefault("console.enabled", true)
	v.SetDefault("send.enabled", true)
	v.SetDefault("transport.timeout", "10s")
	v.SetDefault("transport.queue_size", 256)
	v.SetDefault("transport.workers", 4)
	v.SetDefault("transport.rate_limit", 0)
	v.SetDefault("transport.rate_burst", 1)
	v.SetDefault("transport.breaker_threshold", 5)
	v.SetDefault("transport.breaker_reset", "30s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("metrics.address", "")
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("ship.level", LogLevelInfo)
	v.SetDefault("ship.source", "stdin")

	v.SetConfigName("remotelog")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("REMOTELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, errors.Wrap(err, "read config")
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint,
			validation.Required,
			validation.By(validateEndpoint),
		),
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&c.Colors,
			validation.By(validateColors),
		),
		validation.Field(&c.Transport,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TransportConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TransportConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.Timeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&tc.QueueSize, validation.Required, validation.Min(1)),
					validation.Field(&tc.Workers, validation.Required, validation.Min(1)),
					validation.Field(&tc.RateLimit, validation.Min(0.0)),
					validation.Field(&tc.RateBurst, validation.Min(0)),
					validation.Field(&tc.BreakerThreshold, validation.Min(0)),
					validation.Field(&tc.BreakerReset, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.Address, validation.By(validateHostPort)),
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Ship,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ShipConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ShipConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal),
					),
				)
			}),
		),
	)
}

func validateEndpoint(value interface{}) error {
	endpoint, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

func validateColors(value interface{}) error {
	colors, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of level to color")
	}

	for level, color := range colors {
		if err := validation.Validate(level,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal),
		); err != nil {
			return validation.NewError("validation_invalid_level", "unknown level "+level)
		}
		if !hexColor.MatchString(color) {
			return validation.NewError("validation_invalid_color", "color for "+level+" must be a hex color like #2196f3")
		}
	}

	return nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if addr == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}
