package probe

import (
	"context"
	"time"
)

// Result captures a single reachability check.
type Result struct {
	RTT       time.Duration
	Reachable bool
	Error     error
}

// Prober answers whether a host responds within the timeout. The target
// resolver uses it to validate fallback gateway candidates before adopting
// them as keepalive destinations.
type Prober interface {
	Probe(ctx context.Context, addr string, timeout time.Duration) Result
}
