// Package ticksource ingests domain events from an external emitter (the
// game-side plugin) as single-byte datagrams on a localhost UDP socket.
package ticksource

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/jonathang/tickfixer-go/internal/log"
)

// Event opcodes carried in the first payload byte.
const (
	OpTick   = 0x00 // one game tick was observed
	OpReset  = 0x01 // session boundary crossed (login, world change)
	OpActive = 0x02 // session became active (logged in)
	OpIdle   = 0x03 // session went idle (logged out)
)

// Handler holds the callbacks invoked per event. Nil callbacks are skipped.
type Handler struct {
	OnTick   func()
	OnReset  func()
	OnActive func()
	OnIdle   func()
}

// UDPSource reads events from a UDP socket and dispatches them in arrival
// order on a single goroutine, so the tracker sees strictly ordered events.
type UDPSource struct {
	addr      string
	handler   Handler
	logger    *log.Logger
	unknown   atomic.Uint64
	localAddr atomic.Value // string, set once listening
}

// New returns a source listening on addr once Run is called.
func New(addr string, handler Handler, logger *log.Logger) *UDPSource {
	return &UDPSource{addr: addr, handler: handler, logger: logger}
}

// Run listens until the context is cancelled. The read loop never blocks the
// keepalive scheduler; they share nothing but the process.
func (s *UDPSource) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen tick source: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	s.localAddr.Store(conn.LocalAddr().String())
	s.logger.Info("tick source listening", map[string]interface{}{"addr": conn.LocalAddr().String()})

	buf := make([]byte, 16)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("tick source read: %w", err)
		}
		if n == 0 {
			continue
		}
		s.dispatch(buf[0])
	}
}

// LocalAddr returns the bound listen address, or "" before Run binds it.
func (s *UDPSource) LocalAddr() string {
	if v, ok := s.localAddr.Load().(string); ok {
		return v
	}
	return ""
}

// UnknownOpcodes returns how many undecodable events were dropped.
func (s *UDPSource) UnknownOpcodes() uint64 {
	return s.unknown.Load()
}

func (s *UDPSource) dispatch(op byte) {
	switch op {
	case OpTick:
		if s.handler.OnTick != nil {
			s.handler.OnTick()
		}
	case OpReset:
		if s.handler.OnReset != nil {
			s.handler.OnReset()
		}
	case OpActive:
		if s.handler.OnActive != nil {
			s.handler.OnActive()
		}
	case OpIdle:
		if s.handler.OnIdle != nil {
			s.handler.OnIdle()
		}
	default:
		dropped := s.unknown.Add(1)
		if dropped%100 == 1 {
			s.logger.Warn("dropping unknown tick source opcode", map[string]interface{}{
				"opcode":  op,
				"dropped": dropped,
			})
		}
	}
}
