package config

import (
	"net/url"
	"os"
	"strings"

	"codeberg.org/mutker/brewmon/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultAPIURL         = "http://localhost:8000/api"
	defaultTransport      = "websocket"
	defaultReconnectBase  = 1000
	defaultReconnectMax   = 30000
	defaultHistorySize    = 128
	defaultTelemetryDB    = "/var/lib/brewmon/telemetry.db"
	defaultRequestTimeout = 10
)

type Config struct {
	APIURL           string `mapstructure:"api_url"`
	Transport        string `mapstructure:"transport"`
	ReconnectBaseMs  int    `mapstructure:"reconnect_base_ms"`
	ReconnectMaxMs   int    `mapstructure:"reconnect_max_ms"`
	HistorySize      int    `mapstructure:"history_size"`
	RequestTimeoutS  int    `mapstructure:"request_timeout_s"`
	Telemetry        bool   `mapstructure:"telemetry"`
	TelemetryDB      string `mapstructure:"database"`
	Monitor          bool   `mapstructure:"monitor"`
	Health           bool   `mapstructure:"health"`
	Command          string `mapstructure:"command"`
	LogLevel         string `mapstructure:"log_level"`
	Debug            bool   `mapstructure:"debug"`
	Verbose          bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("transport", defaultTransport)
	v.SetDefault("reconnect_base_ms", defaultReconnectBase)
	v.SetDefault("reconnect_max_ms", defaultReconnectMax)
	v.SetDefault("history_size", defaultHistorySize)
	v.SetDefault("request_timeout_s", defaultRequestTimeout)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", defaultTelemetryDB)
	v.SetDefault("log_level", DefaultLogLevel)

	flags := pflag.NewFlagSet("brewmon", pflag.ContinueOnError)
	flags.String("api-url", defaultAPIURL, "Base API URL of the brew controller")
	flags.String("transport", defaultTransport, "Status transport: websocket or sse")
	flags.Bool("monitor", false, "Log every status update")
	flags.Bool("health", false, "Also watch the component health stream")
	flags.String("command", "", "One-shot control command: pause, resume, nudge-open or nudge-close")
	flags.Bool("telemetry", false, "Record received snapshots to the telemetry database")
	flags.String("database", defaultTelemetryDB, "Path to the telemetry database")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	bindings := map[string]string{
		"api_url":   "api-url",
		"transport": "transport",
		"monitor":   "monitor",
		"health":    "health",
		"command":   "command",
		"telemetry": "telemetry",
		"database":  "database",
		"log_level": "log-level",
		"debug":     "debug",
		"verbose":   "verbose",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix("BREWMON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("BREWMON_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(config)

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	parsed, err := url.Parse(c.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errFactory.WithData(errors.ErrInvalidAPIURL, c.APIURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errFactory.WithData(errors.ErrInvalidAPIURL, c.APIURL)
	}

	switch c.Transport {
	case "websocket", "sse":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "transport must be websocket or sse")
	}

	if c.ReconnectBaseMs <= 0 || c.ReconnectMaxMs < c.ReconnectBaseMs {
		return errFactory.WithData(errors.ErrInvalidConfig, "invalid reconnect delay bounds")
	}

	if c.HistorySize <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "history_size must be positive")
	}

	if c.RequestTimeoutS <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "request_timeout_s must be positive")
	}

	switch c.Command {
	case "", "pause", "resume", "nudge-open", "nudge-close":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown command: "+c.Command)
	}

	if c.Telemetry && c.TelemetryDB == "" {
		return errFactory.New(errors.ErrMissingConfig)
	}

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func applyLogLevel(c *Config) {
	if c.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	if c.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}

	switch LogLevel(c.LogLevel) {
	case LogLevelDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case LogLevelInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case LogLevelWarning:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case LogLevelError:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}
