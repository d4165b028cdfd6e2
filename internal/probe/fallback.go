package probe

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// FallbackProber delegates to primary, then secondary when permission errors
// occur. Raw ICMP sockets usually need elevated privileges; the secondary is
// the system ping binary which carries its own.
type FallbackProber struct {
	primary   Prober
	secondary Prober
}

// NewFallbackProber wraps primary with a secondary fallback.
func NewFallbackProber(primary, secondary Prober) *FallbackProber {
	return &FallbackProber{primary: primary, secondary: secondary}
}

// Probe uses the primary prober and falls back on permission-related errors.
func (p *FallbackProber) Probe(ctx context.Context, addr string, timeout time.Duration) Result {
	result := p.primary.Probe(ctx, addr, timeout)
	if result.Reachable || !isPermissionError(result.Error) {
		return result
	}
	return p.secondary.Probe(ctx, addr, timeout)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}
