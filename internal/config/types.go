package config

// Bounds for the clamped settings. Out-of-range config values are clamped
// rather than rejected, so a typo degrades instead of refusing to start.
const (
	MinKeepaliveIntervalMs = 10
	MaxKeepaliveIntervalMs = 200
	MinPort                = 1
	MaxPort                = 65535
	MinTickSampleSize      = 10
	MaxTickSampleSize      = 500
	MinTickThresholdMs     = 5
	MaxTickThresholdMs     = 100
)

// Options holds all settings parsed from the config file and CLI overrides.
type Options struct {
	KeepaliveIntervalMs int
	KeepaliveTarget     string // "gateway" or an explicit host/address
	KeepalivePort       int
	ActiveOnly          bool // pause keepalive while the session is idle

	TickSampleSize  int
	TickThresholdMs int
	TickListen      string // UDP address the tick event source listens on

	MetricsListen string // empty disables the metrics endpoint
	UIDisable     bool
	LogLevel      string
}

// CLIOverrides holds optional CLI values that override config file values.
type CLIOverrides struct {
	KeepaliveIntervalMs *int
	KeepaliveTarget     *string
	KeepalivePort       *int
	ActiveOnly          *bool
	TickSampleSize      *int
	TickThresholdMs     *int
	TickListen          *string
	MetricsListen       *string
	UIDisable           *bool
}

// Parser defines config parsing behavior.
type Parser interface {
	LoadConfig(path string, overrides CLIOverrides) (*Options, error)
	ParseLine(line string, opts *Options) error
}
