package resolve

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jonathang/tickfixer-go/internal/log"
	"github.com/jonathang/tickfixer-go/internal/probe"
)

const (
	// GatewayKeyword in config means "auto-detect the default gateway".
	GatewayKeyword = "gateway"

	// fallbackGatewayAddr is the most common consumer router address, tried
	// when routing-table detection fails.
	fallbackGatewayAddr = "192.168.1.1"

	// lastResortAddr is a public resolver used only when nothing local could
	// be found. Keepalive packets then leave the local network, which the
	// integrator may prefer to disable.
	lastResortAddr = "8.8.8.8"

	probeBudget = 500 * time.Millisecond
)

// Strategy is one step of the layered target-resolution protocol. Strategies
// report found/not-found instead of errors; the chain simply moves on.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context) (net.IP, bool)
}

// Resolver turns the configured target string into a concrete keepalive
// destination by trying an ordered list of strategies.
type Resolver struct {
	prober        probe.Prober
	logger        *log.Logger
	detectGateway func(ctx context.Context) (net.IP, error)
	lookupHost    func(ctx context.Context, host string) (net.IP, error)
}

// New returns a resolver using the OS routing table for gateway detection
// and the default DNS resolver for explicit hosts.
func New(prober probe.Prober, logger *log.Logger) *Resolver {
	return &Resolver{
		prober:        prober,
		logger:        logger,
		detectGateway: DetectDefaultGateway,
		lookupHost:    lookupFirstAddr,
	}
}

func lookupFirstAddr(ctx context.Context, host string) (net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}
	return addrs[0].IP, nil
}

// Target resolves configValue into an address. Empty input or the literal
// "gateway" goes straight to gateway detection; anything else is tried as a
// hostname first and falls back to detection on failure. A false return
// means the keepalive cannot start.
func (r *Resolver) Target(ctx context.Context, configValue string) (net.IP, bool) {
	value := strings.TrimSpace(configValue)

	var strategies []Strategy
	if value != "" && !strings.EqualFold(value, GatewayKeyword) {
		strategies = append(strategies, hostStrategy{host: value, lookup: r.lookupHost})
	}
	strategies = append(strategies,
		gatewayStrategy{detect: r.detectGateway},
		probeStrategy{addr: fallbackGatewayAddr, prober: r.prober},
		lastResortStrategy{addr: lastResortAddr, logger: r.logger},
	)

	for _, strategy := range strategies {
		ip, ok := strategy.Resolve(ctx)
		if ok {
			r.logger.LogResolution(strategy.Name(), ip.String(), true)
			return ip, true
		}
		r.logger.LogResolution(strategy.Name(), "", false)
	}
	return nil, false
}

// hostStrategy resolves an explicitly configured hostname or address.
type hostStrategy struct {
	host   string
	lookup func(ctx context.Context, host string) (net.IP, error)
}

func (s hostStrategy) Name() string { return "config" }

func (s hostStrategy) Resolve(ctx context.Context) (net.IP, bool) {
	ip, err := s.lookup(ctx, s.host)
	if err != nil || ip == nil {
		return nil, false
	}
	return ip, true
}

// gatewayStrategy queries the OS routing table for the default gateway.
type gatewayStrategy struct {
	detect func(ctx context.Context) (net.IP, error)
}

func (s gatewayStrategy) Name() string { return "gateway" }

func (s gatewayStrategy) Resolve(ctx context.Context) (net.IP, bool) {
	ip, err := s.detect(ctx)
	if err != nil || ip == nil {
		return nil, false
	}
	return ip, true
}

// probeStrategy adopts a well-known candidate only if it answers a short
// reachability probe.
type probeStrategy struct {
	addr   string
	prober probe.Prober
}

func (s probeStrategy) Name() string { return "probe" }

func (s probeStrategy) Resolve(ctx context.Context) (net.IP, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, probeBudget)
	defer cancel()

	result := s.prober.Probe(probeCtx, s.addr, probeBudget)
	if !result.Reachable {
		return nil, false
	}
	return net.ParseIP(s.addr), true
}

// lastResortStrategy always succeeds with a public address.
type lastResortStrategy struct {
	addr   string
	logger *log.Logger
}

func (s lastResortStrategy) Name() string { return "last-resort" }

func (s lastResortStrategy) Resolve(ctx context.Context) (net.IP, bool) {
	ip := net.ParseIP(s.addr)
	if ip == nil {
		return nil, false
	}
	s.logger.Warn("using public last-resort keepalive target, packets will leave the local network", map[string]interface{}{
		"address": s.addr,
	})
	return ip, true
}
