package probe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var timePattern = regexp.MustCompile(`time=([0-9.]+)\s*ms`)

// ExternalProber shells out to the system ping command for environments
// where raw ICMP sockets are not permitted.
type ExternalProber struct{}

// NewExternalProber returns a prober backed by the ping binary.
func NewExternalProber() *ExternalProber {
	return &ExternalProber{}
}

// Probe runs one system ping and parses the RTT from its output.
func (p *ExternalProber) Probe(ctx context.Context, addr string, timeout time.Duration) Result {
	args := pingArgs(addr, timeout)
	start := time.Now()
	cmd := exec.CommandContext(ctx, "ping", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Result{Reachable: false, Error: fmt.Errorf("external ping failed: %w", err)}
	}

	rtt := parseRTT(out)
	if rtt == 0 {
		rtt = time.Since(start)
	}
	return Result{Reachable: true, RTT: rtt}
}

func pingArgs(addr string, timeout time.Duration) []string {
	switch runtime.GOOS {
	case "darwin":
		timeoutMs := maxInt(100, int(timeout.Milliseconds()))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutMs), addr}
	default:
		timeoutSec := maxInt(1, int(timeout.Seconds()+0.5))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutSec), addr}
	}
}

func parseRTT(output []byte) time.Duration {
	matches := timePattern.FindSubmatch(output)
	if len(matches) < 2 {
		return 0
	}
	value, err := strconv.ParseFloat(string(matches[1]), 64)
	if err != nil {
		return 0
	}
	return time.Duration(value * float64(time.Millisecond))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
