package ticksource

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/jonathang/tickfixer-go/internal/log"
)

func quietLogger() *log.Logger {
	logger := log.NewLogger(log.LevelError)
	logger.SetOutput(io.Discard)
	return logger
}

func TestDispatchInvokesMatchingHandler(t *testing.T) {
	var ticks, resets, actives, idles int
	s := New("", Handler{
		OnTick:   func() { ticks++ },
		OnReset:  func() { resets++ },
		OnActive: func() { actives++ },
		OnIdle:   func() { idles++ },
	}, quietLogger())

	s.dispatch(OpTick)
	s.dispatch(OpTick)
	s.dispatch(OpReset)
	s.dispatch(OpActive)
	s.dispatch(OpIdle)

	if ticks != 2 || resets != 1 || actives != 1 || idles != 1 {
		t.Fatalf("unexpected dispatch counts: ticks=%d resets=%d actives=%d idles=%d",
			ticks, resets, actives, idles)
	}
}

func TestDispatchCountsUnknownOpcodes(t *testing.T) {
	s := New("", Handler{}, quietLogger())

	s.dispatch(0x7f)
	s.dispatch(0xff)

	if got := s.UnknownOpcodes(); got != 2 {
		t.Fatalf("expected 2 unknown opcodes, got %d", got)
	}
}

func TestDispatchWithNilHandlersDoesNotPanic(t *testing.T) {
	s := New("", Handler{}, quietLogger())
	for op := byte(0); op < 4; op++ {
		s.dispatch(op)
	}
}

func TestRunReceivesDatagrams(t *testing.T) {
	tickCh := make(chan struct{}, 16)
	s := New("127.0.0.1:0", Handler{OnTick: func() { tickCh <- struct{}{} }}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	var addr string
	for start := time.Now(); addr == ""; {
		addr = s.LocalAddr()
		if time.Since(start) > 2*time.Second {
			t.Fatalf("tick source never bound")
		}
		time.Sleep(time.Millisecond)
	}

	client, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	deadline := time.After(2 * time.Second)
	for received := 0; received < 1; {
		if _, err := client.Write([]byte{OpTick}); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case <-tickCh:
			received++
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for tick dispatch")
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
}
