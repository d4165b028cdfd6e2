package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/jonathang/tickfixer-go/internal/cli"
	"github.com/jonathang/tickfixer-go/internal/config"
	"github.com/jonathang/tickfixer-go/internal/keepalive"
	"github.com/jonathang/tickfixer-go/internal/log"
	"github.com/jonathang/tickfixer-go/internal/metrics"
	"github.com/jonathang/tickfixer-go/internal/probe"
	"github.com/jonathang/tickfixer-go/internal/resolve"
	"github.com/jonathang/tickfixer-go/internal/state"
	"github.com/jonathang/tickfixer-go/internal/ticksource"
	"github.com/jonathang/tickfixer-go/internal/tickstats"
	"github.com/jonathang/tickfixer-go/internal/ui"
)

const version = "0.1.0"

func main() {
	var (
		flagInterval      cli.OptionalInt
		flagTarget        cli.OptionalString
		flagPort          cli.OptionalInt
		flagActiveOnly    cli.OptionalBool
		flagSampleSize    cli.OptionalInt
		flagThreshold     cli.OptionalInt
		flagTickListen    cli.OptionalString
		flagMetricsListen cli.OptionalString
		flagNoUI          cli.OptionalBool
		flagVersion       bool
		flagVersionShort  bool
	)

	flag.Var(&flagInterval, "interval", "keepalive interval in ms (override config)")
	flag.Var(&flagInterval, "i", "keepalive interval in ms (override config)")
	flag.Var(&flagTarget, "target", "keepalive target: \"gateway\" or an explicit address")
	flag.Var(&flagPort, "port", "keepalive destination port")
	flag.Var(&flagActiveOnly, "active-only", "pause keepalive while the session is idle")
	flag.Var(&flagSampleSize, "sample-size", "tick quality sample window size")
	flag.Var(&flagThreshold, "threshold", "good-tick threshold in ms")
	flag.Var(&flagTickListen, "tick-listen", "tick event listen address")
	flag.Var(&flagMetricsListen, "metrics-listen", "metrics listen address (e.g. :9100)")
	flag.Var(&flagNoUI, "no-ui", "disable TUI (log only)")
	flag.BoolVar(&flagVersion, "version", false, "show version")
	flag.BoolVar(&flagVersionShort, "v", false, "show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] [config-file]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flagVersion || flagVersionShort {
		fmt.Fprintf(os.Stdout, "tickfixer version %s\n", version)
		return
	}

	configPath := ""
	if args := flag.Args(); len(args) > 0 {
		configPath = args[0]
	}

	overrides := buildOverrides(flagInterval, flagTarget, flagPort, flagActiveOnly,
		flagSampleSize, flagThreshold, flagTickListen, flagMetricsListen, flagNoUI)

	opts, err := config.FileParser{}.LoadConfig(configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogger(log.ParseLevel(opts.LogLevel))
	if configPath != "" {
		logger.LogConfigLoad(true, configPath, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "tickfixer: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *config.Options, logger *log.Logger) error {
	tracker := tickstats.New(opts.TickSampleSize, opts.TickThresholdMs, clock.New())
	scheduler := keepalive.New(keepalive.NewUDPSender, logger, clock.New())

	prober := probe.NewFallbackProber(probe.NewICMPProber(), probe.NewExternalProber())
	resolver := resolve.New(prober, logger)
	if ip, ok := resolver.Target(ctx, opts.KeepaliveTarget); ok {
		scheduler.Configure(ip, opts.KeepalivePort, opts.KeepaliveIntervalMs)
		if err := scheduler.Start(); err != nil {
			// Keepalive is best effort: the tracker still works without it.
			logger.Error("keepalive could not start", map[string]interface{}{"error": err.Error()})
		} else {
			defer scheduler.Shutdown()
			if opts.ActiveOnly {
				scheduler.Pause() // stay quiet until the session reports active
			}
		}
	} else {
		logger.Error("keepalive disabled: no target could be resolved", nil)
	}

	handler := ticksource.Handler{
		OnTick:  tracker.RecordTick,
		OnReset: tracker.Reset,
		OnActive: func() {
			if opts.ActiveOnly {
				scheduler.Unpause()
			}
		},
		OnIdle: func() {
			if opts.ActiveOnly {
				scheduler.Pause()
			}
		},
	}
	source := ticksource.New(opts.TickListen, handler, logger)
	go func() {
		if err := source.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("tick source stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	collector := state.NewCollector(scheduler, tracker)

	if opts.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, opts.MetricsListen, collector); err != nil && ctx.Err() == nil {
				logger.Error("metrics server stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	if opts.UIDisable {
		<-ctx.Done()
		return ctx.Err()
	}
	return ui.New(collector, &controls{scheduler: scheduler, tracker: tracker}).Run(ctx)
}

// controls adapts the core components to the UI's keyboard actions.
type controls struct {
	scheduler *keepalive.Scheduler
	tracker   *tickstats.Tracker
}

func (c *controls) TogglePause() {
	if c.scheduler.IsPaused() {
		c.scheduler.Unpause()
		return
	}
	c.scheduler.Pause()
}

func (c *controls) ResetTracker() {
	c.tracker.Reset()
}

func (c *controls) AdjustIntervalMs(delta int) {
	c.scheduler.SetInterval(c.scheduler.IntervalMs() + delta)
}

func buildOverrides(
	interval cli.OptionalInt,
	target cli.OptionalString,
	port cli.OptionalInt,
	activeOnly cli.OptionalBool,
	sampleSize cli.OptionalInt,
	threshold cli.OptionalInt,
	tickListen cli.OptionalString,
	metricsListen cli.OptionalString,
	noUI cli.OptionalBool,
) config.CLIOverrides {
	overrides := config.CLIOverrides{}

	if v, ok := interval.Value(); ok {
		value := v
		overrides.KeepaliveIntervalMs = &value
	}
	if v, ok := target.Value(); ok && v != "" {
		value := v
		overrides.KeepaliveTarget = &value
	}
	if v, ok := port.Value(); ok {
		value := v
		overrides.KeepalivePort = &value
	}
	if v, ok := activeOnly.Value(); ok {
		value := v
		overrides.ActiveOnly = &value
	}
	if v, ok := sampleSize.Value(); ok {
		value := v
		overrides.TickSampleSize = &value
	}
	if v, ok := threshold.Value(); ok {
		value := v
		overrides.TickThresholdMs = &value
	}
	if v, ok := tickListen.Value(); ok && v != "" {
		value := v
		overrides.TickListen = &value
	}
	if v, ok := metricsListen.Value(); ok && v != "" {
		value := v
		overrides.MetricsListen = &value
	}
	if v, ok := noUI.Value(); ok {
		value := v
		overrides.UIDisable = &value
	}

	return overrides
}
