package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const echoData = "tickfixer-probe"

// ICMPProber checks reachability with a single ICMP echo request.
type ICMPProber struct {
	id  int
	seq uint32
}

// NewICMPProber initializes a prober with a process-scoped identifier.
func NewICMPProber() *ICMPProber {
	return &ICMPProber{id: os.Getpid() & 0xffff}
}

// Probe sends one echo request to addr and waits for the matching reply.
func (p *ICMPProber) Probe(ctx context.Context, addr string, timeout time.Duration) Result {
	if err := ctx.Err(); err != nil {
		return Result{Reachable: false, Error: err}
	}

	ipAddr, err := net.ResolveIPAddr("ip", addr)
	if err != nil {
		return Result{Reachable: false, Error: err}
	}
	if ipAddr.IP == nil {
		return Result{Reachable: false, Error: fmt.Errorf("invalid IP address: %s", addr)}
	}

	network, protocol, requestType, replyType := icmpSettings(ipAddr.IP)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return Result{Reachable: false, Error: err}
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&p.seq, 1))
	msg := icmp.Message{
		Type: requestType,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte(echoData)},
	}

	payload, err := msg.Marshal(nil)
	if err != nil {
		return Result{Reachable: false, Error: err}
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx, timeout)); err != nil {
		return Result{Reachable: false, Error: err}
	}

	start := time.Now()
	if _, err := conn.WriteTo(payload, ipAddr); err != nil {
		return Result{Reachable: false, Error: err}
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return Result{Reachable: false, Error: err}
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return Result{Reachable: false, Error: fmt.Errorf("probe timeout: %w", err)}
			}
			return Result{Reachable: false, Error: err}
		}
		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.ID != p.id || body.Seq != seq {
			continue
		}

		return Result{Reachable: true, RTT: time.Since(start)}
	}
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
