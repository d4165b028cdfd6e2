package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileParser implements the Parser interface for tickfixer.conf files: one
// `key = value` pair per line, `#` comments, unknown keys ignored for
// forward compatibility.
type FileParser struct{}

// DefaultOptions returns baseline settings used before config overrides.
func DefaultOptions() Options {
	return Options{
		KeepaliveIntervalMs: 50,
		KeepaliveTarget:     "gateway",
		KeepalivePort:       9, // discard service, unlikely to trigger ICMP errors
		ActiveOnly:          false,
		TickSampleSize:      100,
		TickThresholdMs:     30,
		TickListen:          "127.0.0.1:5600",
		MetricsListen:       "",
		UIDisable:           false,
		LogLevel:            "info",
	}
}

// LoadConfig parses a config file with CLI overrides applied last. A missing
// path ("") yields defaults plus overrides.
func (p FileParser) LoadConfig(path string, overrides CLIOverrides) (*Options, error) {
	opts := DefaultOptions()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if err := p.ParseLine(scanner.Text(), &opts); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	applyCLIOverrides(&opts, overrides)
	clampOptions(&opts)
	return &opts, nil
}

// ParseLine applies a single config line to opts. Blank lines and comments
// are no-ops.
func (p FileParser) ParseLine(line string, opts *Options) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	kv := strings.SplitN(trimmed, "=", 2)
	if len(kv) != 2 {
		return fmt.Errorf("invalid config line: %q", line)
	}
	key := strings.TrimSpace(kv[0])
	value := strings.TrimSpace(kv[1])

	switch key {
	case "keepalive.interval_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid keepalive.interval_ms: %w", err)
		}
		opts.KeepaliveIntervalMs = n
	case "keepalive.target":
		opts.KeepaliveTarget = value
	case "keepalive.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid keepalive.port: %w", err)
		}
		opts.KeepalivePort = n
	case "keepalive.active_only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid keepalive.active_only: %w", err)
		}
		opts.ActiveOnly = b
	case "tick.sample_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid tick.sample_size: %w", err)
		}
		opts.TickSampleSize = n
	case "tick.threshold_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid tick.threshold_ms: %w", err)
		}
		opts.TickThresholdMs = n
	case "tick.listen":
		opts.TickListen = normalizeListen(value)
	case "metrics.listen":
		opts.MetricsListen = normalizeListen(value)
	case "ui.disable":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ui.disable: %w", err)
		}
		opts.UIDisable = b
	case "log.level":
		opts.LogLevel = value
	default:
		// Ignore unknown keys for forward compatibility.
	}
	return nil
}

func applyCLIOverrides(opts *Options, overrides CLIOverrides) {
	if overrides.KeepaliveIntervalMs != nil {
		opts.KeepaliveIntervalMs = *overrides.KeepaliveIntervalMs
	}
	if overrides.KeepaliveTarget != nil {
		opts.KeepaliveTarget = *overrides.KeepaliveTarget
	}
	if overrides.KeepalivePort != nil {
		opts.KeepalivePort = *overrides.KeepalivePort
	}
	if overrides.ActiveOnly != nil {
		opts.ActiveOnly = *overrides.ActiveOnly
	}
	if overrides.TickSampleSize != nil {
		opts.TickSampleSize = *overrides.TickSampleSize
	}
	if overrides.TickThresholdMs != nil {
		opts.TickThresholdMs = *overrides.TickThresholdMs
	}
	if overrides.TickListen != nil {
		opts.TickListen = normalizeListen(*overrides.TickListen)
	}
	if overrides.MetricsListen != nil {
		opts.MetricsListen = normalizeListen(*overrides.MetricsListen)
	}
	if overrides.UIDisable != nil {
		opts.UIDisable = *overrides.UIDisable
	}
}

func clampOptions(opts *Options) {
	opts.KeepaliveIntervalMs = clampInt(opts.KeepaliveIntervalMs, MinKeepaliveIntervalMs, MaxKeepaliveIntervalMs)
	opts.KeepalivePort = clampInt(opts.KeepalivePort, MinPort, MaxPort)
	opts.TickSampleSize = clampInt(opts.TickSampleSize, MinTickSampleSize, MaxTickSampleSize)
	opts.TickThresholdMs = clampInt(opts.TickThresholdMs, MinTickThresholdMs, MaxTickThresholdMs)
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// normalizeListen accepts either a full host:port or a bare port.
func normalizeListen(value string) string {
	if isDigits(value) {
		return ":" + value
	}
	return value
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
