package keepalive

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jonathang/tickfixer-go/internal/log"
)

const (
	// MinIntervalMs and MaxIntervalMs bound the send period. Below 10ms the
	// stream is pointless load; above 200ms the radio has time to doze off.
	MinIntervalMs = 10
	MaxIntervalMs = 200

	// DefaultIntervalMs is the send period used when nothing is configured.
	DefaultIntervalMs = 50

	shutdownGrace = 2 * time.Second
)

// Scheduler emits a steady stream of minimal UDP datagrams toward a local
// target so the upstream wireless interface never observes enough idle time
// to enter power-save polling.
//
// The destination and pause flag are read by the send loop and written by
// reconfiguration calls, so both are atomics; no lock is ever held across a
// network send. All mutators are safe no-ops when the scheduler is not
// running.
type Scheduler struct {
	factory SenderFactory
	logger  *log.Logger
	clk     clock.Clock

	running  atomic.Bool
	paused   atomic.Bool
	interval atomic.Int64 // ms, always within [MinIntervalMs, MaxIntervalMs]
	target   atomic.Pointer[net.UDPAddr]

	totalSent   atomic.Uint64
	totalErrors atomic.Uint64

	// intervalCh carries reschedule requests to the send loop. Buffered with
	// one slot; a newer request replaces a pending one.
	intervalCh chan time.Duration

	mu     sync.Mutex // guards lifecycle fields below
	sender Sender
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a stopped scheduler. The factory opens the send socket on
// Start, which lets tests substitute a recording sender.
func New(factory SenderFactory, logger *log.Logger, clk clock.Clock) *Scheduler {
	s := &Scheduler{
		factory:    factory,
		logger:     logger,
		clk:        clk,
		intervalCh: make(chan time.Duration, 1),
	}
	s.interval.Store(DefaultIntervalMs)
	return s
}

// Configure sets the initial destination and interval. Meant to be called
// before the first Start; while running it is ignored, use SetTarget and
// SetInterval instead.
func (s *Scheduler) Configure(ip net.IP, port, intervalMs int) {
	if s.running.Load() {
		s.logger.Warn("configure ignored while keepalive is running", nil)
		return
	}
	if ip != nil {
		s.target.Store(&net.UDPAddr{IP: ip, Port: port})
	}
	s.interval.Store(int64(clampInterval(intervalMs)))
}

// Start opens the send socket and begins the periodic task. Idempotent; a
// second Start while running is a no-op. A socket-open failure leaves the
// scheduler stopped and is returned to the caller.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return nil
	}

	sender, err := s.factory()
	if err != nil {
		return fmt.Errorf("open keepalive socket: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.sender = sender
	s.cancel = cancel
	s.done = done
	s.running.Store(true)

	go s.run(ctx, sender, done)

	s.logger.LogKeepaliveStarted(s.TargetString(), s.IntervalMs())
	return nil
}

// Pause makes subsequent fires no-ops. The timer keeps running, so Unpause
// has no restart cost.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
}

// Unpause resumes sending on the next scheduled fire.
func (s *Scheduler) Unpause() {
	s.paused.Store(false)
}

// SetInterval clamps ms to the allowed bounds and reschedules the periodic
// task at the new period. Safe to call while running, paused or stopped.
func (s *Scheduler) SetInterval(ms int) {
	clamped := clampInterval(ms)
	s.interval.Store(int64(clamped))

	if !s.running.Load() {
		return
	}

	period := time.Duration(clamped) * time.Millisecond
	for {
		select {
		case s.intervalCh <- period:
			return
		default:
		}
		select {
		case <-s.intervalCh:
		default:
		}
	}
}

// SetTarget atomically swaps the destination. The next fire uses the new
// target; no reschedule happens.
func (s *Scheduler) SetTarget(ip net.IP, port int) {
	if ip == nil {
		return
	}
	s.target.Store(&net.UDPAddr{IP: ip, Port: port})
}

// Shutdown cancels the periodic task, waits briefly for an in-flight send to
// finish, then closes the socket. Idempotent and safe to call from any
// goroutine; no sends are scheduled after it returns.
func (s *Scheduler) Shutdown() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	sender := s.sender
	cancel := s.cancel
	done := s.done
	s.sender = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-s.clk.After(shutdownGrace):
			s.logger.Warn("keepalive loop did not stop within grace period", nil)
		}
	}
	if sender != nil {
		_ = sender.Close()
	}

	s.logger.LogKeepaliveStopped(s.totalSent.Load(), s.totalErrors.Load())
}

// IsRunning reports whether the periodic task is active.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// IsPaused reports whether fires are currently no-ops.
func (s *Scheduler) IsPaused() bool {
	return s.paused.Load()
}

// IntervalMs returns the effective (clamped) send period.
func (s *Scheduler) IntervalMs() int {
	return int(s.interval.Load())
}

// TotalSent returns the lifetime count of successfully sent packets.
func (s *Scheduler) TotalSent() uint64 {
	return s.totalSent.Load()
}

// TotalErrors returns the lifetime count of failed sends.
func (s *Scheduler) TotalErrors() uint64 {
	return s.totalErrors.Load()
}

// TargetString returns the current destination as host:port, or "" when no
// target is set.
func (s *Scheduler) TargetString() string {
	target := s.target.Load()
	if target == nil {
		return ""
	}
	return target.String()
}

func (s *Scheduler) run(ctx context.Context, sender Sender, done chan struct{}) {
	defer close(done)

	ticker := s.clk.Ticker(time.Duration(s.interval.Load()) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case period := <-s.intervalCh:
			ticker.Reset(period)
		case <-ticker.C:
			s.fire(sender)
		}
	}
}

// fire sends one keepalive datagram. Errors are counted and swallowed; the
// next scheduled fire is the retry.
func (s *Scheduler) fire(sender Sender) {
	if s.paused.Load() {
		return
	}
	target := s.target.Load()
	if target == nil {
		return
	}

	if err := sender.Send(target); err != nil {
		errs := s.totalErrors.Add(1)
		s.logger.LogSendError(errs, err)
		return
	}
	s.totalSent.Add(1)
}

func clampInterval(ms int) int {
	if ms < MinIntervalMs {
		return MinIntervalMs
	}
	if ms > MaxIntervalMs {
		return MaxIntervalMs
	}
	return ms
}
