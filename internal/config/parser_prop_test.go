package config

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPropertyBoundedKeysAlwaysClamped(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("every bounded key ends up within its bounds", prop.ForAll(
		func(interval, port, sampleSize, threshold int) bool {
			opts := DefaultOptions()
			parser := FileParser{}

			lines := []string{
				fmt.Sprintf("keepalive.interval_ms = %d", interval),
				fmt.Sprintf("keepalive.port = %d", port),
				fmt.Sprintf("tick.sample_size = %d", sampleSize),
				fmt.Sprintf("tick.threshold_ms = %d", threshold),
			}
			for _, line := range lines {
				if err := parser.ParseLine(line, &opts); err != nil {
					return false
				}
			}
			clampOptions(&opts)

			return opts.KeepaliveIntervalMs >= MinKeepaliveIntervalMs &&
				opts.KeepaliveIntervalMs <= MaxKeepaliveIntervalMs &&
				opts.KeepalivePort >= MinPort &&
				opts.KeepalivePort <= MaxPort &&
				opts.TickSampleSize >= MinTickSampleSize &&
				opts.TickSampleSize <= MaxTickSampleSize &&
				opts.TickThresholdMs >= MinTickThresholdMs &&
				opts.TickThresholdMs <= MaxTickThresholdMs
		},
		gen.IntRange(-100000, 100000),
		gen.IntRange(-100000, 100000),
		gen.IntRange(-100000, 100000),
		gen.IntRange(-100000, 100000),
	))

	props.Property("in-range values survive the clamp unchanged", prop.ForAll(
		func(interval int) bool {
			opts := DefaultOptions()
			opts.KeepaliveIntervalMs = interval
			clampOptions(&opts)
			return opts.KeepaliveIntervalMs == interval
		},
		gen.IntRange(MinKeepaliveIntervalMs, MaxKeepaliveIntervalMs),
	))

	props.TestingRun(t)
}
