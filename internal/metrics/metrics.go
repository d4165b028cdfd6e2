package metrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathang/tickfixer-go/internal/state"
)

// SnapshotSource yields the current combined status for exposition.
type SnapshotSource interface {
	GetSnapshot() state.Snapshot
}

// Server exposes Prometheus-style metrics based on the current snapshot.
type Server struct {
	source SnapshotSource
}

// NewServer constructs a metrics server.
func NewServer(source SnapshotSource) *Server {
	return &Server{source: source}
}

// Handler returns an http handler that serves metrics.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		bw := bufio.NewWriter(w)
		defer bw.Flush()
		writeSnapshot(bw, s.source.GetSnapshot())
	})
}

func writeSnapshot(w *bufio.Writer, snapshot state.Snapshot) {
	running := 0
	if snapshot.Keepalive != state.KeepaliveOff {
		running = 1
	}
	paused := 0
	if snapshot.Keepalive == state.KeepalivePaused {
		paused = 1
	}
	warming := 0
	if snapshot.Waiting {
		warming = 1
	}

	fmt.Fprintf(w, "tickfixer_keepalive_running %d\n", running)
	fmt.Fprintf(w, "tickfixer_keepalive_paused %d\n", paused)
	fmt.Fprintf(w, "tickfixer_keepalive_interval_ms %d\n", snapshot.IntervalMs)
	fmt.Fprintf(w, "tickfixer_keepalive_packets_sent_total %d\n", snapshot.TotalSent)
	fmt.Fprintf(w, "tickfixer_keepalive_send_errors_total %d\n", snapshot.TotalErrors)
	fmt.Fprintf(w, "tickfixer_tick_warming_up %d\n", warming)
	fmt.Fprintf(w, "tickfixer_tick_quality_percent %.1f\n", snapshot.Quality)
	fmt.Fprintf(w, "tickfixer_tick_avg_ms %.1f\n", snapshot.AverageMs)
	fmt.Fprintf(w, "tickfixer_tick_jitter_ms %.2f\n", snapshot.JitterMs)
	fmt.Fprintf(w, "tickfixer_tick_last_delta_ms %d\n", snapshot.LastDeltaMs)
	fmt.Fprintf(w, "tickfixer_tick_samples %d\n", snapshot.SampleCount)
}

// Serve starts an HTTP server and blocks until context cancellation.
func Serve(ctx context.Context, addr string, source SnapshotSource) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewServer(source).Handler())
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
