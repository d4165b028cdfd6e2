package resolve

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

const procNetRoutePath = "/proc/net/route"

// DetectDefaultGateway reads the default route's gateway from the operating
// system. Linux exposes the routing table as a file; macOS and the BSDs need
// the route command, with netstat as a second attempt.
func DetectDefaultGateway(ctx context.Context) (net.IP, error) {
	switch runtime.GOOS {
	case "darwin":
		if ip, err := gatewayFromRouteCommand(ctx); err == nil {
			return ip, nil
		}
		return gatewayFromNetstat(ctx)
	default:
		if ip, err := gatewayFromProcNetRoute(procNetRoutePath); err == nil {
			return ip, nil
		}
		return gatewayFromNetstat(ctx)
	}
}

func gatewayFromProcNetRoute(path string) (net.IP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseProcNetRoute(data)
}

// parseProcNetRoute finds the first route with an all-zero destination and a
// non-zero gateway. Fields are little-endian hex words.
func parseProcNetRoute(data []byte) (net.IP, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] == "Iface" {
			continue
		}
		if fields[1] != "00000000" || fields[2] == "00000000" {
			continue
		}
		value, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		return net.IPv4(byte(value), byte(value>>8), byte(value>>16), byte(value>>24)), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no default route in routing table")
}

func gatewayFromRouteCommand(ctx context.Context) (net.IP, error) {
	out, err := exec.CommandContext(ctx, "route", "-n", "get", "default").Output()
	if err != nil {
		return nil, fmt.Errorf("route command failed: %w", err)
	}
	return parseRouteGet(out)
}

func parseRouteGet(output []byte) (net.IP, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "gateway:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "gateway:"))
		if ip := net.ParseIP(value); ip != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no gateway line in route output")
}

func gatewayFromNetstat(ctx context.Context) (net.IP, error) {
	out, err := exec.CommandContext(ctx, "netstat", "-rn").Output()
	if err != nil {
		return nil, fmt.Errorf("netstat command failed: %w", err)
	}
	return parseNetstat(out)
}

func parseNetstat(output []byte) (net.IP, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] != "default" && fields[0] != "0.0.0.0" {
			continue
		}
		if ip := net.ParseIP(fields[1]); ip != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no default route in netstat output")
}
