package config

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Provider defines the interface for accessing configuration values.
// All values are immutable after initial loading.
type Provider interface {
	// GetAPIURL returns the base API URL of the brew controller
	GetAPIURL() string

	// GetTransport returns the configured status transport kind
	GetTransport() string

	// IsMonitorMode returns whether monitor-only mode is enabled
	IsMonitorMode() bool

	// IsTelemetryEnabled returns whether snapshot journaling is enabled
	IsTelemetryEnabled() bool

	// GetTelemetryDBPath returns the path to the telemetry database
	GetTelemetryDBPath() string

	// GetLogLevel returns the configured logging level
	GetLogLevel() string
}

func (c *Config) GetAPIURL() string          { return c.APIURL }
func (c *Config) GetTransport() string       { return c.Transport }
func (c *Config) IsMonitorMode() bool        { return c.Monitor }
func (c *Config) IsTelemetryEnabled() bool   { return c.Telemetry }
func (c *Config) GetTelemetryDBPath() string { return c.TelemetryDB }
func (c *Config) GetLogLevel() string        { return c.LogLevel }
